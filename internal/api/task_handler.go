package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pierre-chaville/lessons/internal/api/shared"
	"github.com/pierre-chaville/lessons/internal/service"
	"github.com/pierre-chaville/lessons/internal/task"
)

// CreateTaskRequest represents the request body for creating a new task.
// Parameters are task-type-specific; lesson_id is always required.
type CreateTaskRequest struct {
	TaskType   string         `json:"task_type" validate:"required,oneof=transcription correction edition summary"`
	Parameters map[string]any `json:"parameters" validate:"required"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID         string         `json:"id"`
	TaskType   string         `json:"task_type"`
	Status     string         `json:"status"`
	Parameters map[string]any `json:"parameters"`
	Result     string         `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	EndDate    *time.Time     `json:"end_date,omitempty"`
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// CreateTask handles POST /api/tasks requests. The task is persisted
// as pending and picked up by the background dispatcher, so the
// response is 202 Accepted.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	created, err := h.taskService.CreateTask(r.Context(), task.TaskType(req.TaskType), req.Parameters)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, taskToResponse(created))
}

// ListTasks handles GET /api/tasks requests.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListTasks(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	t, err := h.taskService.GetTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(t))
}

// DeleteTask handles DELETE /api/tasks/{id} requests. Deleting a task
// that is currently running is refused with 409 Conflict.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func taskToResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:         t.ID.String(),
		TaskType:   string(t.Type),
		Status:     string(t.Status),
		Parameters: t.Parameters,
		Result:     t.Result,
		Error:      t.Error,
		CreatedAt:  t.CreatedAt,
		StartDate:  t.StartDate,
		EndDate:    t.EndDate,
	}
}
