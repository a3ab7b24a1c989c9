package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskCreatedEvent announces that a new background task has been
// persisted and is waiting to be picked up. It carries identifiers
// only; subscribers load the task from the store if they need more.
type TaskCreatedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// TaskID is the identifier of the task that was created
	TaskID uuid.UUID `json:"task_id"`

	// TaskType indicates the type of the created task
	TaskType string `json:"task_type"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskCreatedEvent creates a TaskCreatedEvent for the given task.
func NewTaskCreatedEvent(taskID uuid.UUID, taskType string) *TaskCreatedEvent {
	return &TaskCreatedEvent{
		ID:        uuid.New(),
		TaskID:    taskID,
		TaskType:  taskType,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskCreatedEvent) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *TaskCreatedEvent) error

// HandleEvent calls the wrapped function.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskCreatedEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskCreatedEvent) error
}
