package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Lesson
var (
	ErrEmptyLessonID       = errors.New("lesson ID cannot be empty")
	ErrEmptyLessonTitle    = errors.New("lesson title cannot be empty")
	ErrEmptyLessonFilename = errors.New("lesson filename cannot be empty")
	ErrInvalidSegment      = errors.New("segment end must not precede start")
)

// Segment is a timestamped span of transcript text. Start and End are
// offsets in seconds from the beginning of the audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Validate checks the segment timing.
func (s Segment) Validate() error {
	if s.End < s.Start {
		return ErrInvalidSegment
	}
	return nil
}

// Source is a citation the edition model attaches to an edited part:
// a text from another author referenced in the lesson.
type Source struct {
	Author       string `json:"author,omitempty"`
	Work         string `json:"work,omitempty"`
	Reference    string `json:"reference,omitempty"`
	Text         string `json:"text,omitempty"`
	CitedExcerpt string `json:"cited_excerpt,omitempty"`
}

// EditedPart is a span of the transcript rewritten in written style,
// with the sources it cites. One part may merge several segments, so
// an edited transcript is usually shorter than the original.
type EditedPart struct {
	Start   float64  `json:"start"`
	End     float64  `json:"end"`
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// GenerationMetadata records how an LLM-produced field (corrected or
// edited transcript, summary) was generated, for reproducibility.
type GenerationMetadata struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Prompt      string  `json:"prompt,omitempty"`
}

// TranscriptMetadata records the speech-to-text parameters used to
// produce a lesson transcript.
type TranscriptMetadata struct {
	ModelSize     string `json:"model_size,omitempty"`
	Device        string `json:"device,omitempty"`
	ComputeType   string `json:"compute_type,omitempty"`
	BeamSize      int    `json:"beam_size,omitempty"`
	VADFilter     bool   `json:"vad_filter,omitempty"`
	Language      string `json:"language,omitempty"`
	InitialPrompt string `json:"initial_prompt,omitempty"`
}

// Lesson represents one recorded lesson: its audio file, the transcript
// produced from it, and the derived artifacts (corrected transcript,
// summary) together with their generation metadata.
type Lesson struct {
	ID                  uuid.UUID           `json:"id"`
	Title               string              `json:"title"`
	Filename            string              `json:"filename"`
	Date                time.Time           `json:"date"`
	Duration            float64             `json:"duration,omitempty"`
	CourseID            *uuid.UUID          `json:"course_id,omitempty"`
	ThemeIDs            []uuid.UUID         `json:"theme_ids,omitempty"`
	Transcript          []Segment           `json:"transcript,omitempty"`
	CorrectedTranscript []Segment           `json:"corrected_transcript,omitempty"`
	EditedTranscript    []EditedPart        `json:"edited_transcript,omitempty"`
	Summary             string              `json:"summary,omitempty"`
	TranscriptMetadata  *TranscriptMetadata `json:"transcript_metadata,omitempty"`
	CorrectionMetadata  *GenerationMetadata `json:"correction_metadata,omitempty"`
	EditionMetadata     *GenerationMetadata `json:"edition_metadata,omitempty"`
	SummaryMetadata     *GenerationMetadata `json:"summary_metadata,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// NewLesson creates a new Lesson with the given title and audio filename.
// It generates a new UUID, defaults the lesson date to now, and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewLesson(title, filename string) (*Lesson, error) {
	now := time.Now().UTC()
	lesson := &Lesson{
		ID:        uuid.New(),
		Title:     title,
		Filename:  filename,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := lesson.Validate(); err != nil {
		return nil, err
	}

	return lesson, nil
}

// Validate checks if the Lesson has valid data.
// Returns an error if any field fails validation.
func (l *Lesson) Validate() error {
	if l.ID == uuid.Nil {
		return ErrEmptyLessonID
	}

	if l.Title == "" {
		return ErrEmptyLessonTitle
	}

	if l.Filename == "" {
		return ErrEmptyLessonFilename
	}

	for _, seg := range l.Transcript {
		if err := seg.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// HasTranscript reports whether the lesson has a transcript to work from.
func (l *Lesson) HasTranscript() bool {
	return len(l.Transcript) > 0
}

// TranscriptForSummary returns the transcript a summary should be built
// from: the corrected transcript when present and requested, otherwise
// the original. Returns ErrNoTranscript if neither exists.
func (l *Lesson) TranscriptForSummary(useCorrected bool) ([]Segment, error) {
	if useCorrected && len(l.CorrectedTranscript) > 0 {
		return l.CorrectedTranscript, nil
	}
	if len(l.Transcript) > 0 {
		return l.Transcript, nil
	}
	return nil, ErrNoTranscript
}

// TranscriptForEdition returns the transcript an edition should rework:
// the corrected transcript when present, otherwise the original.
// Returns ErrNoTranscript if neither exists.
func (l *Lesson) TranscriptForEdition() ([]Segment, error) {
	if len(l.CorrectedTranscript) > 0 {
		return l.CorrectedTranscript, nil
	}
	if len(l.Transcript) > 0 {
		return l.Transcript, nil
	}
	return nil, ErrNoTranscript
}
