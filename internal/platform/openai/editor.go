package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/generation"
)

// Editor rewrites transcript segments in written style through the
// chat completion API. It implements generation.Editor.
type Editor struct {
	client *Client
	cfg    config.EditionConfig
}

// NewEditor creates an Editor using the given client and edition
// settings.
func NewEditor(client *Client, cfg config.EditionConfig) *Editor {
	return &Editor{client: client, cfg: cfg}
}

type editionSource struct {
	Author       string `json:"author"`
	Work         string `json:"work"`
	Reference    string `json:"reference"`
	Text         string `json:"text"`
	CitedExcerpt string `json:"cited_excerpt"`
}

type editionPart struct {
	Start   float64         `json:"start"`
	End     float64         `json:"end"`
	Text    string          `json:"text"`
	Sources []editionSource `json:"sources"`
}

type editionPayload struct {
	Parts []editionPart `json:"parts"`
}

// editionProtocol tells the model the response shape. Appended to the
// configured prompt so operators only write the editorial instructions.
const editionProtocol = `Respond with JSON of the form ` +
	`{"parts": [{"start": 0.0, "end": 12.5, "text": "...", ` +
	`"sources": [{"author": "...", "work": "...", "reference": "...", "text": "...", "cited_excerpt": "..."}]}]}. ` +
	`Parts may combine several segments; keep them in order and cover the whole transcript.`

// EditSegments sends one group of segments to the model and returns
// the edited parts in order. Parts may merge segments, so the result
// is usually shorter than the input. A malformed or empty response
// yields generation.ErrInvalidResponse so the caller can fall back.
func (e *Editor) EditSegments(ctx context.Context, segments []domain.Segment) ([]domain.EditedPart, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "[%.1fs - %.1fs] %s\n", s.Start, s.End, s.Text)
	}
	systemPrompt := e.cfg.Prompt + "\n\n" + editionProtocol

	content, err := e.client.Complete(ctx, e.cfg.Model, e.cfg.Temperature, systemPrompt, b.String(), true)
	if err != nil {
		return nil, err
	}

	var parsed editionPayload
	if err := decodeModelJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	if len(parsed.Parts) == 0 {
		return nil, fmt.Errorf("%w: response contains no parts", generation.ErrInvalidResponse)
	}

	parts := make([]domain.EditedPart, len(parsed.Parts))
	for i, p := range parsed.Parts {
		sources := make([]domain.Source, 0, len(p.Sources))
		for _, src := range p.Sources {
			sources = append(sources, domain.Source{
				Author:       src.Author,
				Work:         src.Work,
				Reference:    src.Reference,
				Text:         src.Text,
				CitedExcerpt: src.CitedExcerpt,
			})
		}
		parts[i] = domain.EditedPart{Start: p.Start, End: p.End, Text: p.Text, Sources: sources}
	}
	return parts, nil
}

// Metadata describes the edition configuration.
func (e *Editor) Metadata() domain.GenerationMetadata {
	return domain.GenerationMetadata{
		Provider:    "openai",
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		Prompt:      e.cfg.Prompt,
	}
}

var _ generation.Editor = (*Editor)(nil)
