package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/search"
	"github.com/pierre-chaville/lessons/internal/store"
)

// LessonServiceError is a custom error type for lesson service errors.
type LessonServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for LessonServiceError.
func (e *LessonServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lesson service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("lesson service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *LessonServiceError) Unwrap() error {
	return e.Err
}

// LessonService provides lesson-related operations for the API layer.
type LessonService interface {
	// CreateLesson validates and persists a new lesson.
	CreateLesson(ctx context.Context, lesson *domain.Lesson) error

	// GetLesson retrieves a lesson with its transcripts by ID.
	GetLesson(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)

	// ListLessons retrieves lesson headlines, optionally filtered by course.
	ListLessons(ctx context.Context, courseID *uuid.UUID) ([]*domain.Lesson, error)

	// UpdateLesson saves changes to an existing lesson.
	UpdateLesson(ctx context.Context, lesson *domain.Lesson) error

	// DeleteLesson removes a lesson and its audio file.
	DeleteLesson(ctx context.Context, id uuid.UUID) error

	// AudioPath returns the path of the lesson's audio file on disk.
	// Returns ErrAudioNotFound if the file does not exist.
	AudioPath(ctx context.Context, id uuid.UUID) (string, error)

	// SaveAudio stores an uploaded audio file for the lesson, replacing
	// any previous one, and updates the lesson's filename.
	SaveAudio(ctx context.Context, id uuid.UUID, filename string, content []byte) error

	// Search finds transcript segments of a lesson matching the query,
	// preferring the corrected transcript when present.
	Search(ctx context.Context, id uuid.UUID, query string) ([]search.Match, error)
}

type lessonServiceImpl struct {
	db       *sql.DB
	lessons  store.LessonStore
	audioDir string
	logger   *slog.Logger
}

// NewLessonService creates a LessonService storing audio files under
// audioDir as "{lesson_id}_{filename}". The db handle is used to wrap
// multi-statement writes (lesson row plus theme links) in a
// transaction; a nil db runs them without one.
func NewLessonService(db *sql.DB, lessons store.LessonStore, audioDir string, logger *slog.Logger) LessonService {
	if logger == nil {
		logger = slog.Default()
	}
	return &lessonServiceImpl{
		db:       db,
		lessons:  lessons,
		audioDir: audioDir,
		logger:   logger.With(slog.String("component", "lesson_service")),
	}
}

// withTx runs fn against a transactional view of the lesson store.
func (s *lessonServiceImpl) withTx(ctx context.Context, fn func(lessons store.LessonStore) error) error {
	if s.db == nil {
		return fn(s.lessons)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(s.lessons.WithTx(tx))
	})
}

func (s *lessonServiceImpl) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	err := s.withTx(ctx, func(lessons store.LessonStore) error {
		return lessons.Create(ctx, lesson)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "lesson created", "lesson_id", lesson.ID, "title", lesson.Title)
	return nil
}

func (s *lessonServiceImpl) GetLesson(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	return s.lessons.GetByID(ctx, id)
}

func (s *lessonServiceImpl) ListLessons(ctx context.Context, courseID *uuid.UUID) ([]*domain.Lesson, error) {
	return s.lessons.List(ctx, courseID)
}

func (s *lessonServiceImpl) UpdateLesson(ctx context.Context, lesson *domain.Lesson) error {
	return s.withTx(ctx, func(lessons store.LessonStore) error {
		return lessons.Update(ctx, lesson)
	})
}

func (s *lessonServiceImpl) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, id); err != nil {
		return err
	}

	// Audio removal is best effort; a leftover file is harmless.
	audioPath := s.audioFilePath(lesson)
	if err := os.Remove(audioPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.WarnContext(ctx, "failed to remove lesson audio file",
			"lesson_id", id, "path", audioPath, "error", err)
	}

	s.logger.InfoContext(ctx, "lesson deleted", "lesson_id", id)
	return nil
}

func (s *lessonServiceImpl) AudioPath(ctx context.Context, id uuid.UUID) (string, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if lesson.Filename == "" {
		return "", ErrAudioNotFound
	}

	audioPath := s.audioFilePath(lesson)
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrAudioNotFound, audioPath)
	}
	return audioPath, nil
}

func (s *lessonServiceImpl) SaveAudio(ctx context.Context, id uuid.UUID, filename string, content []byte) error {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return err
	}

	filename = filepath.Base(filename)
	if filename == "" || filename == "." {
		return &LessonServiceError{Operation: "save audio", Message: "invalid filename"}
	}

	if err := os.MkdirAll(s.audioDir, 0o750); err != nil {
		return &LessonServiceError{Operation: "save audio", Message: "failed to create audio directory", Err: err}
	}

	old := s.audioFilePath(lesson)
	lesson.Filename = filename
	if err := os.WriteFile(s.audioFilePath(lesson), content, 0o640); err != nil {
		return &LessonServiceError{Operation: "save audio", Message: "failed to write audio file", Err: err}
	}
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return err
	}

	// Drop the previous file when the filename changed.
	if old != s.audioFilePath(lesson) {
		if err := os.Remove(old); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "failed to remove previous audio file",
				"lesson_id", id, "path", old, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "lesson audio stored", "lesson_id", id, "filename", filename)
	return nil
}

func (s *lessonServiceImpl) Search(ctx context.Context, id uuid.UUID, query string) ([]search.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	segments := lesson.Transcript
	if len(lesson.CorrectedTranscript) > 0 {
		segments = lesson.CorrectedTranscript
	}
	return search.FindSegments(segments, query, search.Options{}), nil
}

func (s *lessonServiceImpl) audioFilePath(lesson *domain.Lesson) string {
	return filepath.Join(s.audioDir, fmt.Sprintf("%s_%s", lesson.ID, lesson.Filename))
}
