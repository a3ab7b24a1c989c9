// Package mocks provides in-memory test doubles for the task package.
package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/store"
	"github.com/pierre-chaville/lessons/internal/task"
)

// MockTaskStore is an in-memory task.TaskStore for tests. It honors the
// same claim and transition semantics as the database implementation.
type MockTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*task.Task

	// Optional error overrides for simulating failures.
	CreateErr error
	ClaimErr  error
	FinishErr error
}

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[uuid.UUID]*task.Task)}
}

// Create implements task.TaskStore.
func (m *MockTaskStore) Create(_ context.Context, t *task.Task) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

// GetByID implements task.TaskStore.
func (m *MockTaskStore) GetByID(_ context.Context, id uuid.UUID) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

// List implements task.TaskStore.
func (m *MockTaskStore) List(_ context.Context) ([]*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ClaimOldestPending implements task.TaskStore.
func (m *MockTaskStore) ClaimOldestPending(_ context.Context, now time.Time) (*task.Task, error) {
	if m.ClaimErr != nil {
		return nil, m.ClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var oldest *task.Task
	for _, t := range m.tasks {
		if t.Status != task.TaskStatusPending {
			continue
		}
		if oldest == nil || t.CreatedAt.Before(oldest.CreatedAt) {
			oldest = t
		}
	}
	if oldest == nil {
		return nil, store.ErrTaskNotFound
	}

	oldest.Status = task.TaskStatusRunning
	start := now
	oldest.StartDate = &start
	cp := *oldest
	return &cp, nil
}

// Finish implements task.TaskStore.
func (m *MockTaskStore) Finish(_ context.Context, id uuid.UUID, status task.TaskStatus, result, errMsg string, now time.Time) error {
	if m.FinishErr != nil {
		return m.FinishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if !t.Status.CanTransitionTo(status) {
		return store.ErrUpdateFailed
	}
	t.Status = status
	t.Result = result
	t.Error = errMsg
	end := now
	t.EndDate = &end
	return nil
}

// Delete implements task.TaskStore.
func (m *MockTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if t.Status == task.TaskStatusRunning {
		return store.ErrTaskRunning
	}
	delete(m.tasks, id)
	return nil
}

// WithTx implements task.TaskStore. The mock has no transaction support and
// returns itself.
func (m *MockTaskStore) WithTx(_ *sql.Tx) task.TaskStore { return m }

var _ task.TaskStore = (*MockTaskStore)(nil)
