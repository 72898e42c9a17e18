// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/tangentlab/nabla/internal/domain/diff"
)

// Task is a differentiation request submitted by clients.
// Fields mirror the JSON schema for /tasks.
type Task struct {
	TaskID    string    // unique id for idempotency
	Exprs     []string  // one expression per function of the system
	Point     []float64 // evaluation point, one value per variable
	Mode      diff.Mode // forward or reverse
	Submitted time.Time // server-side receive time
}

// Result is the stored outcome of a task. A failed evaluation still
// produces a Result, with Err set and the numeric fields empty.
type Result struct {
	TaskID     string
	Mode       diff.Mode
	Primal     []float64
	Jacobian   [][]float64
	Err        string
	Done       time.Time
	EvalMicros int64
}

// Failed reports whether the evaluation produced an error.
func (r Result) Failed() bool { return r.Err != "" }
