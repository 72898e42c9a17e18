package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tangentlab/nabla/internal/adapters/repository"
	"github.com/tangentlab/nabla/internal/domain/dedupe"
	"github.com/tangentlab/nabla/internal/domain/diff"
	"github.com/tangentlab/nabla/internal/domain/model"
	"github.com/tangentlab/nabla/pkg/metrics"
)

// TaskDependencies defines the interface for task intake and lookup.
type TaskDependencies interface {
	dedupe.Deduper
	Submit(ctx context.Context, t model.Task) bool
	Result(ctx context.Context, taskID string) (model.Result, error)
}

// TasksHandler handles task submission and lookup.
type TasksHandler struct {
	deps TaskDependencies
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(deps TaskDependencies) *TasksHandler {
	return &TasksHandler{deps: deps}
}

// HandlePostTask handles POST /tasks requests.
func (h *TasksHandler) HandlePostTask(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_task"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordTaskRejected()
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		metrics.RecordTaskRejected()
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	// Clients may omit the id and let the server assign one.
	if strings.TrimSpace(req.TaskID) == "" {
		req.TaskID = uuid.NewString()
	}

	// Idempotency check, marked as seen first.
	if h.deps.SeenAndRecord(r.Context(), req.TaskID) {
		metrics.RecordTaskDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{TaskID: req.TaskID, Status: "duplicate", Duplicate: true})
		return
	}

	mode, _ := diff.ParseMode(req.Mode)
	task := model.Task{
		TaskID:    req.TaskID,
		Exprs:     req.Exprs,
		Point:     req.Point,
		Mode:      mode,
		Submitted: time.Now(),
	}
	if ok := h.deps.Submit(r.Context(), task); !ok {
		// Roll back the seen mark so the client can retry.
		h.deps.Unrecord(r.Context(), req.TaskID)
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%s: %w", op, ErrBackpressure))
		return
	}
	metrics.RecordTaskSubmitted()
	writeJSON(w, http.StatusAccepted, ackResponse{TaskID: req.TaskID, Status: "accepted", Duplicate: false})
}

// HandleGetTask handles GET /tasks/{id} requests.
func (h *TasksHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_task"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	taskID := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if taskID == "" || strings.Contains(taskID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing task id", op, ErrBadRequest))
		return
	}

	res, err := h.deps.Result(r.Context(), taskID)
	if err != nil {
		if repository.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: no result for task %s", op, taskID))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(res))
}
