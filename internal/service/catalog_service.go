package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/store"
)

// CourseService provides course-related operations for the API layer.
type CourseService interface {
	CreateCourse(ctx context.Context, course *domain.Course) error
	GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	ListCourses(ctx context.Context) ([]*domain.Course, error)
	UpdateCourse(ctx context.Context, course *domain.Course) error
	DeleteCourse(ctx context.Context, id uuid.UUID) error
}

// ThemeService provides theme-related operations for the API layer.
type ThemeService interface {
	CreateTheme(ctx context.Context, theme *domain.Theme) error
	GetTheme(ctx context.Context, id uuid.UUID) (*domain.Theme, error)
	ListThemes(ctx context.Context) ([]*domain.Theme, error)
	UpdateTheme(ctx context.Context, theme *domain.Theme) error
	DeleteTheme(ctx context.Context, id uuid.UUID) error
}

type courseServiceImpl struct {
	courses store.CourseStore
	logger  *slog.Logger
}

// NewCourseService creates a CourseService backed by the given store.
func NewCourseService(courses store.CourseStore, logger *slog.Logger) CourseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &courseServiceImpl{
		courses: courses,
		logger:  logger.With(slog.String("component", "course_service")),
	}
}

func (s *courseServiceImpl) CreateCourse(ctx context.Context, course *domain.Course) error {
	if err := s.courses.Create(ctx, course); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "course created", "course_id", course.ID, "name", course.Name)
	return nil
}

func (s *courseServiceImpl) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	return s.courses.GetByID(ctx, id)
}

func (s *courseServiceImpl) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	return s.courses.List(ctx)
}

func (s *courseServiceImpl) UpdateCourse(ctx context.Context, course *domain.Course) error {
	return s.courses.Update(ctx, course)
}

func (s *courseServiceImpl) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "course deleted", "course_id", id)
	return nil
}

type themeServiceImpl struct {
	themes store.ThemeStore
	logger *slog.Logger
}

// NewThemeService creates a ThemeService backed by the given store.
func NewThemeService(themes store.ThemeStore, logger *slog.Logger) ThemeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &themeServiceImpl{
		themes: themes,
		logger: logger.With(slog.String("component", "theme_service")),
	}
}

func (s *themeServiceImpl) CreateTheme(ctx context.Context, theme *domain.Theme) error {
	if err := s.themes.Create(ctx, theme); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "theme created", "theme_id", theme.ID, "name", theme.Name)
	return nil
}

func (s *themeServiceImpl) GetTheme(ctx context.Context, id uuid.UUID) (*domain.Theme, error) {
	return s.themes.GetByID(ctx, id)
}

func (s *themeServiceImpl) ListThemes(ctx context.Context) ([]*domain.Theme, error) {
	return s.themes.List(ctx)
}

func (s *themeServiceImpl) UpdateTheme(ctx context.Context, theme *domain.Theme) error {
	return s.themes.Update(ctx, theme)
}

func (s *themeServiceImpl) DeleteTheme(ctx context.Context, id uuid.UUID) error {
	if err := s.themes.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "theme deleted", "theme_id", id)
	return nil
}
