package task

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/generation"
	"github.com/pierre-chaville/lessons/internal/store"
)

const (
	// defaultEditionGroupSize is how many segments go into one edition
	// call. Editions merge segments, so groups run much larger than
	// correction groups.
	defaultEditionGroupSize = 100
	// defaultEditionConcurrency caps the number of edition calls in flight.
	defaultEditionConcurrency = 10
)

// EditionHandler rewrites a lesson transcript in written style with
// source citations and stores the result on the lesson. It works from
// the corrected transcript when one exists.
type EditionHandler struct {
	lessons store.LessonStore
	editor  generation.Editor
	retry   generation.RetryPolicy
}

// NewEditionHandler creates a handler editing transcripts with the
// given editor.
func NewEditionHandler(lessons store.LessonStore, editor generation.Editor, retry generation.RetryPolicy) *EditionHandler {
	return &EditionHandler{
		lessons: lessons,
		editor:  editor,
		retry:   retry,
	}
}

// Type implements Handler.
func (h *EditionHandler) Type() TaskType { return TaskTypeEdition }

// Handle implements Handler. Task parameters segments_per_group and
// max_concurrency override the group defaults. Groups are edited
// concurrently and merged in order; a group whose edition call fails
// falls back to a single part carrying the original text, so the
// edited transcript always covers the whole lesson.
func (h *EditionHandler) Handle(ctx context.Context, t *Task) (string, error) {
	lessonID, err := t.LessonID()
	if err != nil {
		return "", err
	}

	lesson, err := h.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return "", fmt.Errorf("failed to load lesson %s: %w", lessonID, err)
	}
	source, err := lesson.TranscriptForEdition()
	if err != nil {
		return "", fmt.Errorf("cannot edit lesson %s: %w", lessonID, err)
	}

	groupSize := t.IntParam("segments_per_group", defaultEditionGroupSize)
	if groupSize <= 0 {
		groupSize = defaultEditionGroupSize
	}
	concurrency := t.IntParam("max_concurrency", defaultEditionConcurrency)
	if concurrency <= 0 {
		concurrency = defaultEditionConcurrency
	}

	groups := make([][]domain.Segment, 0, (len(source)+groupSize-1)/groupSize)
	for start := 0; start < len(source); start += groupSize {
		end := start + groupSize
		if end > len(source) {
			end = len(source)
		}
		groups = append(groups, source[start:end])
	}

	results := make([][]domain.EditedPart, len(groups))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		go func(i int, g []domain.Segment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = h.editGroup(ctx, g)
		}(i, g)
	}
	wg.Wait()

	var parts []domain.EditedPart
	for _, r := range results {
		parts = append(parts, r...)
	}

	metadata := h.editor.Metadata()
	lesson.EditedTranscript = parts
	lesson.EditionMetadata = &metadata

	if err := h.lessons.Update(ctx, lesson); err != nil {
		return "", fmt.Errorf("failed to store edited transcript: %w", err)
	}

	return fmt.Sprintf("edited %d segments into %d parts", len(source), len(parts)), nil
}

// editGroup runs one edition call with retry. A group that still fails
// after retries becomes a single part with the original text joined,
// so failures degrade to an unedited span instead of a gap.
func (h *EditionHandler) editGroup(ctx context.Context, g []domain.Segment) []domain.EditedPart {
	var parts []domain.EditedPart
	err := generation.Retry(ctx, h.retry, func(ctx context.Context) error {
		var callErr error
		parts, callErr = h.editor.EditSegments(ctx, g)
		return callErr
	})
	if err == nil && len(parts) > 0 {
		return parts
	}

	texts := make([]string, len(g))
	for i, s := range g {
		texts[i] = s.Text
	}
	return []domain.EditedPart{{
		Start: g[0].Start,
		End:   g[len(g)-1].End,
		Text:  strings.Join(texts, " "),
	}}
}
