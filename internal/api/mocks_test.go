package api_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/search"
	"github.com/pierre-chaville/lessons/internal/store"
	"github.com/pierre-chaville/lessons/internal/task"
)

// mockTaskService implements service.TaskService for handler tests.
type mockTaskService struct {
	tasks     map[uuid.UUID]*task.Task
	createErr error
	deleteErr error
}

func newMockTaskService() *mockTaskService {
	return &mockTaskService{tasks: make(map[uuid.UUID]*task.Task)}
}

func (m *mockTaskService) CreateTask(ctx context.Context, taskType task.TaskType, parameters map[string]any) (*task.Task, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	t, err := task.NewTask(taskType, parameters)
	if err != nil {
		return nil, err
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *mockTaskService) GetTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t, nil
}

func (m *mockTaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	out := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// mockLessonService implements service.LessonService for handler tests.
type mockLessonService struct {
	lessons   map[uuid.UUID]*domain.Lesson
	audioPath string
	matches   []search.Match
	saveErr   error
	searchErr error

	savedFilename string
	savedContent  []byte
}

func newMockLessonService() *mockLessonService {
	return &mockLessonService{lessons: make(map[uuid.UUID]*domain.Lesson)}
}

func (m *mockLessonService) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	m.lessons[lesson.ID] = lesson
	return nil
}

func (m *mockLessonService) GetLesson(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	l, ok := m.lessons[id]
	if !ok {
		return nil, store.ErrLessonNotFound
	}
	return l, nil
}

func (m *mockLessonService) ListLessons(ctx context.Context, courseID *uuid.UUID) ([]*domain.Lesson, error) {
	out := make([]*domain.Lesson, 0, len(m.lessons))
	for _, l := range m.lessons {
		if courseID != nil && (l.CourseID == nil || *l.CourseID != *courseID) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *mockLessonService) UpdateLesson(ctx context.Context, lesson *domain.Lesson) error {
	if _, ok := m.lessons[lesson.ID]; !ok {
		return store.ErrLessonNotFound
	}
	m.lessons[lesson.ID] = lesson
	return nil
}

func (m *mockLessonService) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.lessons[id]; !ok {
		return store.ErrLessonNotFound
	}
	delete(m.lessons, id)
	return nil
}

func (m *mockLessonService) AudioPath(ctx context.Context, id uuid.UUID) (string, error) {
	if _, ok := m.lessons[id]; !ok {
		return "", store.ErrLessonNotFound
	}
	return m.audioPath, nil
}

func (m *mockLessonService) SaveAudio(ctx context.Context, id uuid.UUID, filename string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.lessons[id]; !ok {
		return store.ErrLessonNotFound
	}
	m.savedFilename = filename
	m.savedContent = content
	return nil
}

func (m *mockLessonService) Search(ctx context.Context, id uuid.UUID, query string) ([]search.Match, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if _, ok := m.lessons[id]; !ok {
		return nil, store.ErrLessonNotFound
	}
	return m.matches, nil
}

// mockCourseService implements service.CourseService for handler tests.
type mockCourseService struct {
	courses   map[uuid.UUID]*domain.Course
	createErr error
}

func newMockCourseService() *mockCourseService {
	return &mockCourseService{courses: make(map[uuid.UUID]*domain.Course)}
}

func (m *mockCourseService) CreateCourse(ctx context.Context, course *domain.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseService) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return c, nil
}

func (m *mockCourseService) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	out := make([]*domain.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCourseService) UpdateCourse(ctx context.Context, course *domain.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return store.ErrCourseNotFound
	}
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseService) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.courses[id]; !ok {
		return store.ErrCourseNotFound
	}
	delete(m.courses, id)
	return nil
}

// mockThemeService implements service.ThemeService for handler tests.
type mockThemeService struct {
	themes    map[uuid.UUID]*domain.Theme
	createErr error
}

func newMockThemeService() *mockThemeService {
	return &mockThemeService{themes: make(map[uuid.UUID]*domain.Theme)}
}

func (m *mockThemeService) CreateTheme(ctx context.Context, theme *domain.Theme) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.themes[theme.ID] = theme
	return nil
}

func (m *mockThemeService) GetTheme(ctx context.Context, id uuid.UUID) (*domain.Theme, error) {
	t, ok := m.themes[id]
	if !ok {
		return nil, store.ErrThemeNotFound
	}
	return t, nil
}

func (m *mockThemeService) ListThemes(ctx context.Context) ([]*domain.Theme, error) {
	out := make([]*domain.Theme, 0, len(m.themes))
	for _, t := range m.themes {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockThemeService) UpdateTheme(ctx context.Context, theme *domain.Theme) error {
	if _, ok := m.themes[theme.ID]; !ok {
		return store.ErrThemeNotFound
	}
	m.themes[theme.ID] = theme
	return nil
}

func (m *mockThemeService) DeleteTheme(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.themes[id]; !ok {
		return store.ErrThemeNotFound
	}
	delete(m.themes, id)
	return nil
}
