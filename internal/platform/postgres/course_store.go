package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/store"
)

// PostgresCourseStore implements the store.CourseStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCourseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCourseStore creates a new PostgreSQL implementation of the CourseStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCourseStore(db store.DBTX, logger *slog.Logger) *PostgresCourseStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCourseStore{
		db:     db,
		logger: logger.With(slog.String("component", "course_store")),
	}
}

// Ensure PostgresCourseStore implements store.CourseStore interface
var _ store.CourseStore = (*PostgresCourseStore)(nil)

// Create implements store.CourseStore.Create
func (s *PostgresCourseStore) Create(ctx context.Context, course *domain.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO courses (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query,
		course.ID, course.Name, course.Description, course.CreatedAt, course.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrCourseNameExists
		}
		return MapError(err)
	}

	s.logger.DebugContext(ctx, "course created", "course_id", course.ID, "name", course.Name)
	return nil
}

// GetByID implements store.CourseStore.GetByID
func (s *PostgresCourseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM courses
		WHERE id = $1`
	var c domain.Course
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Name, &description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrCourseNotFound
		}
		return nil, MapError(err)
	}
	c.Description = description.String
	return &c, nil
}

// List implements store.CourseStore.List
func (s *PostgresCourseStore) List(ctx context.Context) ([]*domain.Course, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM courses
		ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var courses []*domain.Course
	for rows.Next() {
		var c domain.Course
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		c.Description = description.String
		courses = append(courses, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return courses, nil
}

// Update implements store.CourseStore.Update
func (s *PostgresCourseStore) Update(ctx context.Context, course *domain.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE courses
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3`
	res, err := s.db.ExecContext(ctx, query, course.Name, course.Description, course.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrCourseNameExists
		}
		return MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return store.ErrCourseNotFound
	}
	return nil
}

// Delete implements store.CourseStore.Delete. Lessons that referenced
// the course keep existing; the ON DELETE SET NULL on lessons.course_id
// clears the reference.
func (s *PostgresCourseStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return store.ErrCourseNotFound
	}
	return nil
}
