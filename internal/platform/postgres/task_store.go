package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/store"
	"github.com/pierre-chaville/lessons/internal/task"
)

// PostgresTaskStore implements the task.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// Create implements task.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, t *task.Task) error {
	params, err := json.Marshal(t.Parameters)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal task parameters: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, task_type, status, parameters, result, error, created_at, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = s.db.ExecContext(ctx, query,
		t.ID, string(t.Type), string(t.Status), params,
		t.Result, t.Error, t.CreatedAt, t.StartDate, t.EndDate)
	if err != nil {
		return MapError(err)
	}

	s.logger.DebugContext(ctx, "task created", "task_id", t.ID, "task_type", t.Type)
	return nil
}

// GetByID implements task.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `
		SELECT id, task_type, status, parameters, result, error, created_at, start_date, end_date
		FROM tasks
		WHERE id = $1`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}
	return t, nil
}

// List implements task.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context) ([]*task.Task, error) {
	query := `
		SELECT id, task_type, status, parameters, result, error, created_at, start_date, end_date
		FROM tasks
		ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

// ClaimOldestPending implements task.TaskStore.ClaimOldestPending.
// The UPDATE only matches rows still in pending status, so the claim is
// an atomic compare-and-set: concurrent dispatchers can never both
// claim the same task. FOR UPDATE SKIP LOCKED keeps a second claimer
// from blocking on the row while the first commits.
func (s *PostgresTaskStore) ClaimOldestPending(ctx context.Context, now time.Time) (*task.Task, error) {
	query := `
		UPDATE tasks
		SET status = $1, start_date = $2
		WHERE id = (
			SELECT id FROM tasks
			WHERE status = $3
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		AND status = $3
		RETURNING id, task_type, status, parameters, result, error, created_at, start_date, end_date`
	t, err := scanTask(s.db.QueryRowContext(ctx, query,
		string(task.TaskStatusRunning), now, string(task.TaskStatusPending)))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	s.logger.DebugContext(ctx, "task claimed", "task_id", t.ID, "task_type", t.Type)
	return t, nil
}

// Finish implements task.TaskStore.Finish. The status guard mirrors
// the transition rules: only a running task can reach a terminal status.
func (s *PostgresTaskStore) Finish(ctx context.Context, id uuid.UUID, status task.TaskStatus, result, errMsg string, now time.Time) error {
	if !task.TaskStatusRunning.CanTransitionTo(status) {
		return fmt.Errorf("%w: cannot finish task with status %q", store.ErrUpdateFailed, status)
	}

	query := `
		UPDATE tasks
		SET status = $1, result = $2, error = $3, end_date = $4
		WHERE id = $5 AND status = $6`
	res, err := s.db.ExecContext(ctx, query,
		string(status), result, errMsg, now, id, string(task.TaskStatusRunning))
	if err != nil {
		return MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: task %s is not running", store.ErrUpdateFailed, id)
	}
	return nil
}

// Delete implements task.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	// Never delete a running task; the guard is part of the statement
	// so there is no window between check and delete.
	query := `DELETE FROM tasks WHERE id = $1 AND status <> $2`
	res, err := s.db.ExecContext(ctx, query, id, string(task.TaskStatusRunning))
	if err != nil {
		return MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		var status string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = $1`, id).Scan(&status)
		if err != nil {
			return store.ErrTaskNotFound
		}
		return store.ErrTaskRunning
	}
	return nil
}

// WithTx implements task.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var (
		t         task.Task
		taskType  string
		status    string
		params    []byte
		result    sql.NullString
		errMsg    sql.NullString
		startDate sql.NullTime
		endDate   sql.NullTime
	)
	err := row.Scan(&t.ID, &taskType, &status, &params, &result, &errMsg, &t.CreatedAt, &startDate, &endDate)
	if err != nil {
		return nil, err
	}

	t.Type = task.TaskType(taskType)
	t.Status = task.TaskStatus(status)
	t.Result = result.String
	t.Error = errMsg.String
	if startDate.Valid {
		t.StartDate = &startDate.Time
	}
	if endDate.Valid {
		t.EndDate = &endDate.Time
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &t.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task parameters: %w", err)
		}
	}
	if t.Parameters == nil {
		t.Parameters = map[string]any{}
	}
	return &t, nil
}
