package worker

import (
	"time"

	"github.com/tangentlab/nabla/pkg/logger"
)

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Evaluator) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Evaluator) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithEvalTimeout bounds the time spent differentiating one task.
// A non-positive value disables the bound.
func WithEvalTimeout(d time.Duration) Option {
	return func(w *Evaluator) {
		w.evalTimeout = d
	}
}
