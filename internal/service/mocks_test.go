package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockLessonStore is an in-memory lesson store for service tests.
type mockLessonStore struct {
	mu      sync.Mutex
	lessons map[uuid.UUID]*domain.Lesson
}

func newMockLessonStore(lessons ...*domain.Lesson) *mockLessonStore {
	m := &mockLessonStore{lessons: make(map[uuid.UUID]*domain.Lesson)}
	for _, l := range lessons {
		m.lessons[l.ID] = l
	}
	return m
}

func (m *mockLessonStore) Create(_ context.Context, lesson *domain.Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessons[lesson.ID] = lesson
	return nil
}

func (m *mockLessonStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lessons[id]
	if !ok {
		return nil, store.ErrLessonNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockLessonStore) List(_ context.Context, courseID *uuid.UUID) ([]*domain.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Lesson
	for _, l := range m.lessons {
		if courseID != nil && (l.CourseID == nil || *l.CourseID != *courseID) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockLessonStore) Update(_ context.Context, lesson *domain.Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lessons[lesson.ID]; !ok {
		return store.ErrLessonNotFound
	}
	cp := *lesson
	m.lessons[lesson.ID] = &cp
	return nil
}

func (m *mockLessonStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lessons[id]; !ok {
		return store.ErrLessonNotFound
	}
	delete(m.lessons, id)
	return nil
}

func (m *mockLessonStore) WithTx(_ *sql.Tx) store.LessonStore { return m }
