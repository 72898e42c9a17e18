// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tangentlab/nabla/internal/domain/dedupe"
	"github.com/tangentlab/nabla/internal/domain/diff"
	"github.com/tangentlab/nabla/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the application service.
type Dependencies interface {
	dedupe.Deduper

	// Submit pushes a task for async evaluation. Returns false on backpressure.
	Submit(ctx context.Context, t model.Task) bool

	// Result returns the stored result for a task id.
	Result(ctx context.Context, taskID string) (model.Result, error)

	// Recent returns up to n results, newest first.
	Recent(ctx context.Context, n int) ([]model.Result, error)

	// Differentiate evaluates a system synchronously.
	Differentiate(ctx context.Context, exprs []string, point []float64, mode diff.Mode) (diff.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	tasksHandler         *TasksHandler
	resultsHandler       *ResultsHandler
	differentiateHandler *DifferentiateHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxResultsLimit int) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		tasksHandler:         NewTasksHandler(deps),
		resultsHandler:       NewResultsHandler(deps, maxResultsLimit),
		differentiateHandler: NewDifferentiateHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/tasks", MetricsMiddleware(s.tasksHandler.HandlePostTask, "tasks"))
	mux.HandleFunc("/tasks/", MetricsMiddleware(s.tasksHandler.HandleGetTask, "task"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleGetResults, "results"))
	mux.HandleFunc("/differentiate", MetricsMiddleware(s.differentiateHandler.HandleDifferentiate, "differentiate"))
}

// taskRequest mirrors the JSON schema for POST /tasks and POST /differentiate.
type taskRequest struct {
	TaskID string    `json:"task_id"`
	Exprs  []string  `json:"exprs"`
	Point  []float64 `json:"point"`
	Mode   string    `json:"mode"`
}

func (t taskRequest) validate() error {
	switch {
	case len(t.Exprs) == 0:
		return errors.New("missing exprs")
	case len(t.Point) == 0:
		return errors.New("missing point")
	}
	for i, e := range t.Exprs {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("empty expression at index %d", i)
		}
	}
	if _, err := diff.ParseMode(t.Mode); err != nil {
		return fmt.Errorf("invalid mode %q", t.Mode)
	}
	return nil
}

type ackResponse struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type resultResponse struct {
	TaskID     string      `json:"task_id,omitempty"`
	Mode       string      `json:"mode"`
	Primal     []float64   `json:"primal,omitempty"`
	Jacobian   [][]float64 `json:"jacobian,omitempty"`
	Error      string      `json:"error,omitempty"`
	Done       time.Time   `json:"done,omitempty"`
	EvalMicros int64       `json:"eval_micros"`
}

func toResultResponse(r model.Result) resultResponse {
	return resultResponse{
		TaskID:     r.TaskID,
		Mode:       string(r.Mode),
		Primal:     r.Primal,
		Jacobian:   r.Jacobian,
		Error:      r.Err,
		Done:       r.Done,
		EvalMicros: r.EvalMicros,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
