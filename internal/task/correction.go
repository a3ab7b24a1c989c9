package task

import (
	"context"
	"fmt"

	"github.com/pierre-chaville/lessons/internal/correction"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/generation"
	"github.com/pierre-chaville/lessons/internal/store"
)

// CorrectionHandler runs the bounded-concurrency correction pipeline
// over a lesson's transcript and stores the corrected version.
type CorrectionHandler struct {
	lessons   store.LessonStore
	corrector generation.Corrector
	retry     generation.RetryPolicy
}

// NewCorrectionHandler creates a handler correcting transcripts with
// the given corrector.
func NewCorrectionHandler(lessons store.LessonStore, corrector generation.Corrector, retry generation.RetryPolicy) *CorrectionHandler {
	return &CorrectionHandler{
		lessons:   lessons,
		corrector: corrector,
		retry:     retry,
	}
}

// Type implements Handler.
func (h *CorrectionHandler) Type() TaskType { return TaskTypeCorrection }

// Handle implements Handler. Task parameters segments_per_group and
// max_concurrency override the pipeline defaults.
func (h *CorrectionHandler) Handle(ctx context.Context, t *Task) (string, error) {
	lessonID, err := t.LessonID()
	if err != nil {
		return "", err
	}

	lesson, err := h.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return "", fmt.Errorf("failed to load lesson %s: %w", lessonID, err)
	}
	if !lesson.HasTranscript() {
		return "", fmt.Errorf("%w: lesson %s has no transcript to correct", domain.ErrNoTranscript, lessonID)
	}

	pipeline := correction.NewPipeline(h.corrector, correction.Options{
		GroupSize:   t.IntParam("segments_per_group", correction.DefaultGroupSize),
		Concurrency: t.IntParam("max_concurrency", correction.DefaultConcurrency),
		Retry:       h.retry,
	})

	corrected, err := pipeline.Run(ctx, lesson.Transcript)
	if err != nil {
		return "", fmt.Errorf("correction pipeline failed: %w", err)
	}

	metadata := h.corrector.Metadata()
	lesson.CorrectedTranscript = corrected
	lesson.CorrectionMetadata = &metadata

	if err := h.lessons.Update(ctx, lesson); err != nil {
		return "", fmt.Errorf("failed to store corrected transcript: %w", err)
	}

	return fmt.Sprintf("corrected %d segments", len(corrected)), nil
}
