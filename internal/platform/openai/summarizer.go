package openai

import (
	"context"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/generation"
)

// Summarizer produces lesson summaries through the chat completion
// API. It implements generation.Summarizer.
type Summarizer struct {
	client *Client
	cfg    config.SummaryConfig
}

// NewSummarizer creates a Summarizer using the given client and
// summary settings.
func NewSummarizer(client *Client, cfg config.SummaryConfig) *Summarizer {
	return &Summarizer{client: client, cfg: cfg}
}

// Summarize generates a summary of the transcript using the given
// prompt as the system message.
func (s *Summarizer) Summarize(ctx context.Context, prompt, transcript string) (string, error) {
	return s.client.Complete(ctx, s.cfg.Model, s.cfg.Temperature, prompt, transcript, false)
}

// Metadata describes the summary configuration. The caller records the
// prompt actually used.
func (s *Summarizer) Metadata() domain.GenerationMetadata {
	return domain.GenerationMetadata{
		Provider:    "openai",
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
	}
}

var _ generation.Summarizer = (*Summarizer)(nil)
