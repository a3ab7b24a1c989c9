package task_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/store"
)

// mockLessonStore is a minimal in-memory lesson store for handler tests.
type mockLessonStore struct {
	mu      sync.Mutex
	lessons map[uuid.UUID]*domain.Lesson

	getErr    error
	updateErr error
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
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lessons[id]
	if !ok {
		return nil, store.ErrLessonNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockLessonStore) List(_ context.Context, _ *uuid.UUID) ([]*domain.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Lesson, 0, len(m.lessons))
	for _, l := range m.lessons {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockLessonStore) Update(_ context.Context, lesson *domain.Lesson) error {
	if m.updateErr != nil {
		return m.updateErr
	}
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

// get returns the stored lesson for assertions.
func (m *mockLessonStore) get(id uuid.UUID) *domain.Lesson {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lessons[id]
}

// fakeTranscriber returns canned segments.
type fakeTranscriber struct {
	segments []domain.Segment
	metadata *domain.TranscriptMetadata
	err      error

	lastPath string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) ([]domain.Segment, *domain.TranscriptMetadata, error) {
	f.lastPath = audioPath
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.segments, f.metadata, nil
}

// fakeCorrector uppercases every text.
type fakeCorrector struct {
	err   error
	calls int
}

func (f *fakeCorrector) CorrectSegments(_ context.Context, texts []string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "corrected: " + t
	}
	return out, nil
}

func (f *fakeCorrector) Metadata() domain.GenerationMetadata {
	return domain.GenerationMetadata{Provider: "fake", Model: "corrector-1", Temperature: 0.3}
}

// fakeSummarizer records the prompt and transcript it was called with.
type fakeSummarizer struct {
	summary string
	err     error

	lastPrompt     string
	lastTranscript string
}

func (f *fakeSummarizer) Summarize(_ context.Context, prompt, transcript string) (string, error) {
	f.lastPrompt = prompt
	f.lastTranscript = transcript
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func (f *fakeSummarizer) Metadata() domain.GenerationMetadata {
	return domain.GenerationMetadata{Provider: "fake", Model: "summarizer-1", Temperature: 0.7}
}

// fakeEditor merges each group of segments into one edited part.
type fakeEditor struct {
	err   error
	calls int

	mu         sync.Mutex
	lastGroups [][]domain.Segment
}

func (f *fakeEditor) EditSegments(_ context.Context, segments []domain.Segment) ([]domain.EditedPart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastGroups = append(f.lastGroups, segments)
	if f.err != nil {
		return nil, f.err
	}
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return []domain.EditedPart{{
		Start:   segments[0].Start,
		End:     segments[len(segments)-1].End,
		Text:    "edited: " + strings.Join(texts, " "),
		Sources: []domain.Source{{Author: "Montaigne", Work: "Essais"}},
	}}, nil
}

func (f *fakeEditor) Metadata() domain.GenerationMetadata {
	return domain.GenerationMetadata{Provider: "fake", Model: "editor-1", Temperature: 0.3}
}
