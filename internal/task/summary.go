package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/generation"
	"github.com/pierre-chaville/lessons/internal/store"
)

// SummaryHandler produces a lesson summary from its transcript and
// stores it on the lesson.
type SummaryHandler struct {
	lessons    store.LessonStore
	summarizer generation.Summarizer
	cfg        config.SummaryConfig
	retry      generation.RetryPolicy
}

// NewSummaryHandler creates a handler summarizing lessons with the
// given summarizer and prompt configuration.
func NewSummaryHandler(lessons store.LessonStore, summarizer generation.Summarizer, cfg config.SummaryConfig, retry generation.RetryPolicy) *SummaryHandler {
	return &SummaryHandler{
		lessons:    lessons,
		summarizer: summarizer,
		cfg:        cfg,
		retry:      retry,
	}
}

// Type implements Handler.
func (h *SummaryHandler) Type() TaskType { return TaskTypeSummary }

// Handle implements Handler. The use_corrected parameter (default
// true) selects the corrected transcript when present; prompt_type
// selects a configured prompt by name, falling back to the first one.
// Summarizing a lesson with no transcript at all is an error.
func (h *SummaryHandler) Handle(ctx context.Context, t *Task) (string, error) {
	lessonID, err := t.LessonID()
	if err != nil {
		return "", err
	}

	lesson, err := h.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return "", fmt.Errorf("failed to load lesson %s: %w", lessonID, err)
	}

	segments, err := lesson.TranscriptForSummary(t.BoolParam("use_corrected", true))
	if err != nil {
		return "", fmt.Errorf("cannot summarize lesson %s: %w", lessonID, err)
	}

	promptName := t.StringParam("prompt_type", "")
	prompt, ok := h.cfg.PromptByName(promptName)
	if !ok {
		return "", fmt.Errorf("no summary prompt configured")
	}

	promptText := prompt.Text
	if h.cfg.MaxLength > 0 {
		promptText = fmt.Sprintf("%s Keep the summary under %d words.", promptText, h.cfg.MaxLength)
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	transcript := strings.Join(texts, " ")

	var summary string
	err = generation.Retry(ctx, h.retry, func(ctx context.Context) error {
		var callErr error
		summary, callErr = h.summarizer.Summarize(ctx, promptText, transcript)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}

	metadata := h.summarizer.Metadata()
	metadata.Prompt = fmt.Sprintf("[%s] %s", prompt.Name, prompt.Text)
	lesson.Summary = summary
	lesson.SummaryMetadata = &metadata

	if err := h.lessons.Update(ctx, lesson); err != nil {
		return "", fmt.Errorf("failed to store summary: %w", err)
	}

	return fmt.Sprintf("generated summary of %d characters", len(summary)), nil
}
