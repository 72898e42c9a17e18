package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tangentlab/nabla/internal/domain/model"
)

// Default and maximum limits for the results listing.
const (
	defaultResultsLimit = 20
	maxResultsLimit     = 1000
)

// ResultDependencies defines the interface for listing recent results.
type ResultDependencies interface {
	Recent(ctx context.Context, n int) ([]model.Result, error)
}

// ResultsHandler handles recent-result listing.
type ResultsHandler struct {
	deps     ResultDependencies
	maxLimit int
}

// NewResultsHandler creates a new results handler. A non-positive
// maxLimit falls back to the package default.
func NewResultsHandler(deps ResultDependencies, maxLimit int) *ResultsHandler {
	if maxLimit < 1 {
		maxLimit = maxResultsLimit
	}
	return &ResultsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetResults handles GET /results?limit=N requests.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: invalid limit %q", op, ErrBadRequest, raw))
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	results, err := h.deps.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
		return
	}

	out := make([]resultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, toResultResponse(res))
	}
	writeJSON(w, http.StatusOK, out)
}
