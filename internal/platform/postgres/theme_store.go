package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/store"
)

// PostgresThemeStore implements the store.ThemeStore interface
// using a PostgreSQL database as the storage backend.
type PostgresThemeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresThemeStore creates a new PostgreSQL implementation of the ThemeStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresThemeStore(db store.DBTX, logger *slog.Logger) *PostgresThemeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresThemeStore{
		db:     db,
		logger: logger.With(slog.String("component", "theme_store")),
	}
}

// Ensure PostgresThemeStore implements store.ThemeStore interface
var _ store.ThemeStore = (*PostgresThemeStore)(nil)

// Create implements store.ThemeStore.Create
func (s *PostgresThemeStore) Create(ctx context.Context, theme *domain.Theme) error {
	if err := theme.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO themes (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`
	_, err := s.db.ExecContext(ctx, query, theme.ID, theme.Name, theme.CreatedAt, theme.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrThemeNameExists
		}
		return MapError(err)
	}

	s.logger.DebugContext(ctx, "theme created", "theme_id", theme.ID, "name", theme.Name)
	return nil
}

// GetByID implements store.ThemeStore.GetByID
func (s *PostgresThemeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Theme, error) {
	query := `SELECT id, name, created_at, updated_at FROM themes WHERE id = $1`
	var t domain.Theme
	err := s.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrThemeNotFound
		}
		return nil, MapError(err)
	}
	return &t, nil
}

// GetByIDs implements store.ThemeStore.GetByIDs
func (s *PostgresThemeStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Theme, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, created_at, updated_at FROM themes WHERE id = ANY($1) ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var themes []*domain.Theme
	for rows.Next() {
		var t domain.Theme
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		themes = append(themes, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return themes, nil
}

// List implements store.ThemeStore.List
func (s *PostgresThemeStore) List(ctx context.Context) ([]*domain.Theme, error) {
	query := `SELECT id, name, created_at, updated_at FROM themes ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var themes []*domain.Theme
	for rows.Next() {
		var t domain.Theme
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		themes = append(themes, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return themes, nil
}

// Update implements store.ThemeStore.Update
func (s *PostgresThemeStore) Update(ctx context.Context, theme *domain.Theme) error {
	if err := theme.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `UPDATE themes SET name = $1, updated_at = NOW() WHERE id = $2`
	res, err := s.db.ExecContext(ctx, query, theme.Name, theme.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrThemeNameExists
		}
		return MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return store.ErrThemeNotFound
	}
	return nil
}

// Delete implements store.ThemeStore.Delete. Lesson links are removed
// by the ON DELETE CASCADE on lesson_themes.
func (s *PostgresThemeStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM themes WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return store.ErrThemeNotFound
	}
	return nil
}
