package domain

import (
	"time"

	"github.com/google/uuid"
)

// Theme is a named topic label that can be attached to any number of
// lessons. Names are unique.
type Theme struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTheme creates a new Theme with the given name.
// Returns an error if validation fails.
func NewTheme(name string) (*Theme, error) {
	now := time.Now().UTC()
	theme := &Theme{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := theme.Validate(); err != nil {
		return nil, err
	}

	return theme, nil
}

// Validate checks if the Theme has valid data.
func (t *Theme) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyThemeID
	}

	if t.Name == "" {
		return ErrEmptyThemeName
	}

	return nil
}
