package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/store"
)

// PostgresLessonStore implements the store.LessonStore interface
// using a PostgreSQL database as the storage backend. Transcript
// bodies and generation metadata are stored as JSONB columns.
type PostgresLessonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLessonStore creates a new PostgreSQL implementation of the LessonStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresLessonStore(db store.DBTX, logger *slog.Logger) *PostgresLessonStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLessonStore{
		db:     db,
		logger: logger.With(slog.String("component", "lesson_store")),
	}
}

// Ensure PostgresLessonStore implements store.LessonStore interface
var _ store.LessonStore = (*PostgresLessonStore)(nil)

// Create implements store.LessonStore.Create
func (s *PostgresLessonStore) Create(ctx context.Context, lesson *domain.Lesson) error {
	if err := lesson.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	cols, err := marshalLessonJSON(lesson)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO lessons (
			id, title, filename, date, duration, course_id,
			transcript, corrected_transcript, edited_transcript, summary,
			transcript_metadata, correction_metadata, edition_metadata, summary_metadata,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = s.db.ExecContext(ctx, query,
		lesson.ID, lesson.Title, lesson.Filename, lesson.Date, lesson.Duration, lesson.CourseID,
		cols.transcript, cols.corrected, cols.edited, lesson.Summary,
		cols.transcriptMeta, cols.correctionMeta, cols.editionMeta, cols.summaryMeta,
		lesson.CreatedAt, lesson.UpdatedAt)
	if err != nil {
		return MapError(err)
	}

	if err := s.replaceThemeLinks(ctx, lesson.ID, lesson.ThemeIDs); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "lesson created", "lesson_id", lesson.ID)
	return nil
}

// GetByID implements store.LessonStore.GetByID
func (s *PostgresLessonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	query := `
		SELECT id, title, filename, date, duration, course_id,
			transcript, corrected_transcript, edited_transcript, summary,
			transcript_metadata, correction_metadata, edition_metadata, summary_metadata,
			created_at, updated_at
		FROM lessons
		WHERE id = $1`
	lesson, err := scanLesson(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrLessonNotFound
		}
		return nil, MapError(err)
	}

	lesson.ThemeIDs, err = s.themeLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// List implements store.LessonStore.List. Transcript bodies are left
// out of the query; list views only need the headline fields and the
// generation metadata.
func (s *PostgresLessonStore) List(ctx context.Context, courseID *uuid.UUID) ([]*domain.Lesson, error) {
	query := `
		SELECT id, title, filename, date, duration, course_id, summary,
			transcript_metadata, correction_metadata, edition_metadata, summary_metadata,
			created_at, updated_at
		FROM lessons`
	var args []any
	if courseID != nil {
		query += ` WHERE course_id = $1`
		args = append(args, *courseID)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var lessons []*domain.Lesson
	for rows.Next() {
		var (
			l              domain.Lesson
			courseRef      uuid.NullUUID
			summary        sql.NullString
			transcriptMeta []byte
			correctionMeta []byte
			editionMeta    []byte
			summaryMeta    []byte
		)
		err := rows.Scan(&l.ID, &l.Title, &l.Filename, &l.Date, &l.Duration,
			&courseRef, &summary, &transcriptMeta, &correctionMeta, &editionMeta, &summaryMeta,
			&l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, MapError(err)
		}
		if courseRef.Valid {
			l.CourseID = &courseRef.UUID
		}
		l.Summary = summary.String
		if err := unmarshalLessonMetadata(&l, transcriptMeta, correctionMeta, editionMeta, summaryMeta); err != nil {
			return nil, err
		}
		lessons = append(lessons, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	for _, l := range lessons {
		l.ThemeIDs, err = s.themeLinks(ctx, l.ID)
		if err != nil {
			return nil, err
		}
	}
	return lessons, nil
}

// Update implements store.LessonStore.Update
func (s *PostgresLessonStore) Update(ctx context.Context, lesson *domain.Lesson) error {
	if err := lesson.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	cols, err := marshalLessonJSON(lesson)
	if err != nil {
		return err
	}

	query := `
		UPDATE lessons
		SET title = $1, filename = $2, date = $3, duration = $4, course_id = $5,
			transcript = $6, corrected_transcript = $7, edited_transcript = $8, summary = $9,
			transcript_metadata = $10, correction_metadata = $11, edition_metadata = $12,
			summary_metadata = $13, updated_at = NOW()
		WHERE id = $14`
	res, err := s.db.ExecContext(ctx, query,
		lesson.Title, lesson.Filename, lesson.Date, lesson.Duration, lesson.CourseID,
		cols.transcript, cols.corrected, cols.edited, lesson.Summary,
		cols.transcriptMeta, cols.correctionMeta, cols.editionMeta, cols.summaryMeta,
		lesson.ID)
	if err != nil {
		return MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return store.ErrLessonNotFound
	}

	return s.replaceThemeLinks(ctx, lesson.ID, lesson.ThemeIDs)
}

// Delete implements store.LessonStore.Delete. Theme links are removed
// by the ON DELETE CASCADE on lesson_themes.
func (s *PostgresLessonStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return store.ErrLessonNotFound
	}
	return nil
}

// WithTx implements store.LessonStore.WithTx
func (s *PostgresLessonStore) WithTx(tx *sql.Tx) store.LessonStore {
	return &PostgresLessonStore{db: tx, logger: s.logger}
}

// replaceThemeLinks synchronizes the lesson_themes join table with the
// lesson's theme references.
func (s *PostgresLessonStore) replaceThemeLinks(ctx context.Context, lessonID uuid.UUID, themeIDs []uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lesson_themes WHERE lesson_id = $1`, lessonID); err != nil {
		return MapError(err)
	}
	for _, themeID := range themeIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO lesson_themes (lesson_id, theme_id) VALUES ($1, $2)`,
			lessonID, themeID)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

func (s *PostgresLessonStore) themeLinks(ctx context.Context, lessonID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT theme_id FROM lesson_themes WHERE lesson_id = $1 ORDER BY theme_id`, lessonID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return ids, nil
}

// lessonJSON holds the marshaled JSONB column values. Nil slices and
// nil metadata map to SQL NULL rather than the JSON "null" literal.
type lessonJSON struct {
	transcript     []byte
	corrected      []byte
	edited         []byte
	transcriptMeta []byte
	correctionMeta []byte
	editionMeta    []byte
	summaryMeta    []byte
}

func marshalLessonJSON(lesson *domain.Lesson) (lessonJSON, error) {
	var cols lessonJSON
	var err error

	marshal := func(v any) []byte {
		if err != nil {
			return nil
		}
		var b []byte
		b, err = json.Marshal(v)
		return b
	}

	if lesson.Transcript != nil {
		cols.transcript = marshal(lesson.Transcript)
	}
	if lesson.CorrectedTranscript != nil {
		cols.corrected = marshal(lesson.CorrectedTranscript)
	}
	if lesson.EditedTranscript != nil {
		cols.edited = marshal(lesson.EditedTranscript)
	}
	if lesson.TranscriptMetadata != nil {
		cols.transcriptMeta = marshal(lesson.TranscriptMetadata)
	}
	if lesson.CorrectionMetadata != nil {
		cols.correctionMeta = marshal(lesson.CorrectionMetadata)
	}
	if lesson.EditionMetadata != nil {
		cols.editionMeta = marshal(lesson.EditionMetadata)
	}
	if lesson.SummaryMetadata != nil {
		cols.summaryMeta = marshal(lesson.SummaryMetadata)
	}
	if err != nil {
		return lessonJSON{}, fmt.Errorf("%w: failed to marshal lesson fields: %v", store.ErrInvalidEntity, err)
	}
	return cols, nil
}

func scanLesson(row rowScanner) (*domain.Lesson, error) {
	var (
		l              domain.Lesson
		courseRef      uuid.NullUUID
		summary        sql.NullString
		transcript     []byte
		corrected      []byte
		edited         []byte
		transcriptMeta []byte
		correctionMeta []byte
		editionMeta    []byte
		summaryMeta    []byte
	)
	err := row.Scan(&l.ID, &l.Title, &l.Filename, &l.Date, &l.Duration, &courseRef,
		&transcript, &corrected, &edited, &summary,
		&transcriptMeta, &correctionMeta, &editionMeta, &summaryMeta,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if courseRef.Valid {
		l.CourseID = &courseRef.UUID
	}
	l.Summary = summary.String

	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &l.Transcript); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
		}
	}
	if len(corrected) > 0 {
		if err := json.Unmarshal(corrected, &l.CorrectedTranscript); err != nil {
			return nil, fmt.Errorf("failed to unmarshal corrected transcript: %w", err)
		}
	}
	if len(edited) > 0 {
		if err := json.Unmarshal(edited, &l.EditedTranscript); err != nil {
			return nil, fmt.Errorf("failed to unmarshal edited transcript: %w", err)
		}
	}
	if err := unmarshalLessonMetadata(&l, transcriptMeta, correctionMeta, editionMeta, summaryMeta); err != nil {
		return nil, err
	}
	return &l, nil
}

func unmarshalLessonMetadata(l *domain.Lesson, transcriptMeta, correctionMeta, editionMeta, summaryMeta []byte) error {
	if len(transcriptMeta) > 0 {
		if err := json.Unmarshal(transcriptMeta, &l.TranscriptMetadata); err != nil {
			return fmt.Errorf("failed to unmarshal transcript metadata: %w", err)
		}
	}
	if len(correctionMeta) > 0 {
		if err := json.Unmarshal(correctionMeta, &l.CorrectionMetadata); err != nil {
			return fmt.Errorf("failed to unmarshal correction metadata: %w", err)
		}
	}
	if len(editionMeta) > 0 {
		if err := json.Unmarshal(editionMeta, &l.EditionMetadata); err != nil {
			return fmt.Errorf("failed to unmarshal edition metadata: %w", err)
		}
	}
	if len(summaryMeta) > 0 {
		if err := json.Unmarshal(summaryMeta, &l.SummaryMetadata); err != nil {
			return fmt.Errorf("failed to unmarshal summary metadata: %w", err)
		}
	}
	return nil
}
