package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/generation"
)

// Corrector corrects transcript segments through the chat completion
// API. It implements generation.Corrector.
type Corrector struct {
	client *Client
	cfg    config.CorrectionConfig
}

// NewCorrector creates a Corrector using the given client and
// correction settings.
func NewCorrector(client *Client, cfg config.CorrectionConfig) *Corrector {
	return &Corrector{client: client, cfg: cfg}
}

type correctionSegment struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type correctionPayload struct {
	Segments []correctionSegment `json:"segments"`
}

// CorrectSegments sends one group of segment texts to the model and
// returns the corrected texts in input order. Segments the model
// leaves out keep their original text. A malformed response yields
// generation.ErrInvalidResponse so the caller can fall back.
func (c *Corrector) CorrectSegments(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := correctionPayload{Segments: make([]correctionSegment, len(texts))}
	for i, text := range texts {
		payload.Segments[i] = correctionSegment{ID: i + 1, Text: text}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode segments: %v", generation.ErrGenerationFailed, err)
	}

	content, err := c.client.Complete(ctx, c.cfg.Model, c.cfg.Temperature, c.cfg.Prompt, string(encoded), true)
	if err != nil {
		return nil, err
	}

	var parsed correctionPayload
	if err := decodeModelJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	corrected := make([]string, len(texts))
	copy(corrected, texts)
	for _, seg := range parsed.Segments {
		if seg.ID < 1 || seg.ID > len(texts) {
			continue
		}
		if seg.Text != "" {
			corrected[seg.ID-1] = seg.Text
		}
	}
	return corrected, nil
}

// Metadata describes the correction configuration.
func (c *Corrector) Metadata() domain.GenerationMetadata {
	return domain.GenerationMetadata{
		Provider:    "openai",
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Prompt:      c.cfg.Prompt,
	}
}

var _ generation.Corrector = (*Corrector)(nil)
