package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Course and Theme
var (
	ErrEmptyCourseID   = errors.New("course ID cannot be empty")
	ErrEmptyCourseName = errors.New("course name cannot be empty")
	ErrEmptyThemeID    = errors.New("theme ID cannot be empty")
	ErrEmptyThemeName  = errors.New("theme name cannot be empty")
)

// Course groups lessons under a named series. Names are unique.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCourse creates a new Course with the given name and description.
// Returns an error if validation fails.
func NewCourse(name, description string) (*Course, error) {
	now := time.Now().UTC()
	course := &Course{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := course.Validate(); err != nil {
		return nil, err
	}

	return course, nil
}

// Validate checks if the Course has valid data.
func (c *Course) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCourseID
	}

	if c.Name == "" {
		return ErrEmptyCourseName
	}

	return nil
}
