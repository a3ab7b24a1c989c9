package task

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
)

// TaskType identifies which handler processes a task.
type TaskType string

// Supported task types.
const (
	TaskTypeTranscription TaskType = "transcription"
	TaskTypeCorrection    TaskType = "correction"
	TaskTypeEdition       TaskType = "edition"
	TaskTypeSummary       TaskType = "summary"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeTranscription, TaskTypeCorrection, TaskTypeEdition, TaskTypeSummary:
		return true
	}
	return false
}

// TaskStatus represents the current state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// CanTransitionTo reports whether moving from s to next is a legal
// status transition. Status only ever moves forward: pending to
// running, running to completed or failed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusRunning
	case TaskStatusRunning:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	}
	return false
}

// Terminal reports whether s is a final status.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task is a persisted unit of background work. It is created by the
// API layer with a pending status and mutated only by the dispatcher
// afterwards.
type Task struct {
	ID         uuid.UUID      `json:"id"`
	Type       TaskType       `json:"task_type"`
	Status     TaskStatus     `json:"status"`
	Parameters map[string]any `json:"parameters"`
	Result     string         `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	EndDate    *time.Time     `json:"end_date,omitempty"`
}

// NewTask creates a pending task of the given type. Parameters must
// include a lesson_id; type-specific keys are validated by the handler.
func NewTask(taskType TaskType, parameters map[string]any) (*Task, error) {
	if !taskType.Valid() {
		return nil, fmt.Errorf("%w: unknown task type %q", domain.ErrValidation, taskType)
	}
	if parameters == nil {
		parameters = map[string]any{}
	}
	t := &Task{
		ID:         uuid.New(),
		Type:       taskType,
		Status:     TaskStatusPending,
		Parameters: parameters,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := t.LessonID(); err != nil {
		return nil, err
	}
	return t, nil
}

// LessonID extracts and parses the lesson_id parameter.
func (t *Task) LessonID() (uuid.UUID, error) {
	raw, ok := t.Parameters["lesson_id"]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: missing lesson_id parameter", domain.ErrValidation)
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: lesson_id must be a string", domain.ErrValidation)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid lesson_id %q", domain.ErrInvalidID, s)
	}
	return id, nil
}

// IntParam returns the named parameter as an int, or def when absent.
// JSON decoding produces float64 for numbers, so both forms are accepted.
func (t *Task) IntParam(name string, def int) int {
	switch v := t.Parameters[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// BoolParam returns the named parameter as a bool, or def when absent.
func (t *Task) BoolParam(name string, def bool) bool {
	if v, ok := t.Parameters[name].(bool); ok {
		return v
	}
	return def
}

// StringParam returns the named parameter as a string, or def when absent.
func (t *Task) StringParam(name, def string) string {
	if v, ok := t.Parameters[name].(string); ok {
		return v
	}
	return def
}

// TaskStore defines the interface for persisting tasks.
type TaskStore interface {
	// Create persists a new task.
	Create(ctx context.Context, t *Task) error

	// GetByID retrieves a task by its unique ID. Returns
	// store.ErrTaskNotFound if no task exists with that ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)

	// List retrieves all tasks, newest first.
	List(ctx context.Context) ([]*Task, error)

	// ClaimOldestPending atomically transitions the oldest pending task
	// to running and records its start date. The claim is a
	// compare-and-set on the pending status, so two concurrent
	// dispatchers can never claim the same task. Returns
	// store.ErrTaskNotFound when no pending task exists.
	ClaimOldestPending(ctx context.Context, now time.Time) (*Task, error)

	// Finish records the terminal status of a running task, along with
	// its result or error message and end date.
	Finish(ctx context.Context, id uuid.UUID, status TaskStatus, result, errMsg string, now time.Time) error

	// Delete removes a task. Returns store.ErrTaskRunning when the
	// task is currently running and store.ErrTaskNotFound when it does
	// not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
