package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tangentlab/nabla/internal/domain/diff"
	"github.com/tangentlab/nabla/internal/domain/expr"
	"github.com/tangentlab/nabla/pkg/metrics"
)

// DifferentiateDependencies defines the interface for synchronous evaluation.
type DifferentiateDependencies interface {
	Differentiate(ctx context.Context, exprs []string, point []float64, mode diff.Mode) (diff.Result, error)
}

// DifferentiateHandler evaluates a system in one round trip, without
// going through the queue.
type DifferentiateHandler struct {
	deps DifferentiateDependencies
}

// NewDifferentiateHandler creates a new differentiate handler.
func NewDifferentiateHandler(deps DifferentiateDependencies) *DifferentiateHandler {
	return &DifferentiateHandler{deps: deps}
}

// HandleDifferentiate handles POST /differentiate requests.
func (h *DifferentiateHandler) HandleDifferentiate(w http.ResponseWriter, r *http.Request) {
	const op = "api.differentiate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	mode, _ := diff.ParseMode(req.Mode)
	start := time.Now()
	res, err := h.deps.Differentiate(r.Context(), req.Exprs, req.Point, mode)
	evalMicros := time.Since(start).Microseconds()
	if err != nil {
		// Compile and domain failures are the client's problem, not ours.
		if expr.IsCompileError(err) {
			metrics.RecordCompileError()
		} else {
			metrics.RecordEvalError()
		}
		writeError(w, http.StatusUnprocessableEntity, "eval_failed", fmt.Errorf("%s: %w", op, err))
		return
	}
	metrics.RecordEvalCompleted(string(mode))

	writeJSON(w, http.StatusOK, resultResponse{
		TaskID:     req.TaskID,
		Mode:       string(mode),
		Primal:     res.Primal,
		Jacobian:   res.Jacobian,
		Done:       time.Now(),
		EvalMicros: evalMicros,
	})
}
