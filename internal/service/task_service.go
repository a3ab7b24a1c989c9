package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/events"
	"github.com/pierre-chaville/lessons/internal/task"
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// TaskService provides task-related operations for the API layer.
type TaskService interface {
	// CreateTask validates and persists a new pending task.
	CreateTask(ctx context.Context, taskType task.TaskType, parameters map[string]any) (*task.Task, error)

	// GetTask retrieves a task by its ID.
	GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error)

	// ListTasks retrieves all tasks, newest first.
	ListTasks(ctx context.Context) ([]*task.Task, error)

	// DeleteTask removes a task. Deleting a running task is refused
	// with store.ErrTaskRunning.
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

type taskServiceImpl struct {
	store   task.TaskStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewTaskService creates a TaskService backed by the given store. The
// emitter may be nil, in which case no creation events are published.
func NewTaskService(store task.TaskStore, emitter events.EventEmitter, logger *slog.Logger) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		store:   store,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "task_service")),
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, taskType task.TaskType, parameters map[string]any) (*task.Task, error) {
	t, err := task.NewTask(taskType, parameters)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, &TaskServiceError{Operation: "create", Message: "failed to persist task", Err: err}
	}

	// The task is already persisted, so a failed notification only
	// delays pickup until the dispatcher's next poll.
	if s.emitter != nil {
		event := events.NewTaskCreatedEvent(t.ID, string(t.Type))
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit task created event",
				"task_id", t.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "task created", "task_id", t.ID, "task_type", t.Type)
	return t, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	return s.store.GetByID(ctx, id)
}

func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*task.Task, error) {
	return s.store.List(ctx)
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "task deleted", "task_id", id)
	return nil
}
