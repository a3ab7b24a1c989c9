package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pierre-chaville/lessons/internal/domain"
)

// LessonStore defines the interface for lesson persistence.
type LessonStore interface {
	// Create saves a new lesson to the store.
	// Returns validation errors from the domain Lesson if the data is invalid.
	Create(ctx context.Context, lesson *domain.Lesson) error

	// GetByID retrieves a lesson by its unique ID.
	// Returns ErrLessonNotFound if the lesson does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)

	// List retrieves all lessons ordered by date descending. Transcript
	// bodies are not loaded; the result is intended for list views.
	// When courseID is non-nil only lessons of that course are returned.
	List(ctx context.Context, courseID *uuid.UUID) ([]*domain.Lesson, error)

	// Update saves changes to an existing lesson.
	// Returns ErrLessonNotFound if the lesson does not exist.
	Update(ctx context.Context, lesson *domain.Lesson) error

	// Delete removes a lesson and its theme links.
	// Returns ErrLessonNotFound if the lesson does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new LessonStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) LessonStore
}

// CourseStore defines the interface for course persistence.
type CourseStore interface {
	// Create saves a new course.
	// Returns ErrCourseNameExists if the name is already taken.
	Create(ctx context.Context, course *domain.Course) error

	// GetByID retrieves a course by its unique ID.
	// Returns ErrCourseNotFound if the course does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// List retrieves all courses ordered by name.
	List(ctx context.Context) ([]*domain.Course, error)

	// Update saves changes to an existing course.
	// Returns ErrCourseNotFound if the course does not exist.
	Update(ctx context.Context, course *domain.Course) error

	// Delete removes a course. Lessons referencing it keep existing with
	// their course reference cleared.
	// Returns ErrCourseNotFound if the course does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ThemeStore defines the interface for theme persistence.
type ThemeStore interface {
	// Create saves a new theme.
	// Returns ErrThemeNameExists if the name is already taken.
	Create(ctx context.Context, theme *domain.Theme) error

	// GetByID retrieves a theme by its unique ID.
	// Returns ErrThemeNotFound if the theme does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Theme, error)

	// GetByIDs retrieves the themes matching the given IDs.
	// Missing IDs are simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Theme, error)

	// List retrieves all themes ordered by name.
	List(ctx context.Context) ([]*domain.Theme, error)

	// Update saves changes to an existing theme.
	// Returns ErrThemeNotFound if the theme does not exist.
	Update(ctx context.Context, theme *domain.Theme) error

	// Delete removes a theme and its lesson links.
	// Returns ErrThemeNotFound if the theme does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
