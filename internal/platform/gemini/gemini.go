// Package gemini implements the generation interfaces using Google's
// Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/domain"
	"github.com/pierre-chaville/lessons/internal/generation"
)

// models abstracts the genai model surface so tests can substitute a
// fake without network access.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps the Gemini API for correction, edition and summary requests.
type Client struct {
	models models
}

// NewClient constructs a Gemini client with the given API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: api key required", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create client: %v", generation.ErrInvalidConfig, err)
	}
	return &Client{models: client.Models}, nil
}

func (c *Client) complete(ctx context.Context, model string, temperature float64, systemPrompt, userPrompt string, jsonResponse bool) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(temperature)),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if jsonResponse {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", classifyError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: blocked by safety filters", generation.ErrContentBlocked)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: response contains no text", generation.ErrInvalidResponse)
	}
	return text, nil
}

// classifyError maps genai errors onto the generation error kinds so
// the retry layer can tell rate limits from permanent failures.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", generation.ErrRateLimited, err)
		case apiErr.Code == http.StatusRequestTimeout || apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		default:
			return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}

// Corrector corrects transcript segments through the Gemini API. It
// implements generation.Corrector.
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
// leaves out keep their original text.
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

	content, err := c.client.complete(ctx, c.cfg.Model, c.cfg.Temperature, c.cfg.Prompt, string(encoded), true)
	if err != nil {
		return nil, err
	}

	var parsed correctionPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode segments: %v", generation.ErrInvalidResponse, err)
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
		Provider:    "gemini",
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Prompt:      c.cfg.Prompt,
	}
}

// Editor rewrites transcript segments in written style through the
// Gemini API. It implements generation.Editor.
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

const editionProtocol = `Respond with JSON of the form ` +
	`{"parts": [{"start": 0.0, "end": 12.5, "text": "...", ` +
	`"sources": [{"author": "...", "work": "...", "reference": "...", "text": "...", "cited_excerpt": "..."}]}]}. ` +
	`Parts may combine several segments; keep them in order and cover the whole transcript.`

// EditSegments sends one group of segments to the model and returns
// the edited parts in order. A malformed or empty response yields
// generation.ErrInvalidResponse so the caller can fall back.
func (e *Editor) EditSegments(ctx context.Context, segments []domain.Segment) ([]domain.EditedPart, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "[%.1fs - %.1fs] %s\n", s.Start, s.End, s.Text)
	}
	systemPrompt := e.cfg.Prompt + "\n\n" + editionProtocol

	content, err := e.client.complete(ctx, e.cfg.Model, e.cfg.Temperature, systemPrompt, b.String(), true)
	if err != nil {
		return nil, err
	}

	var parsed editionPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode parts: %v", generation.ErrInvalidResponse, err)
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
		Provider:    "gemini",
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		Prompt:      e.cfg.Prompt,
	}
}

// Summarizer produces lesson summaries through the Gemini API. It
// implements generation.Summarizer.
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
// prompt as the system instruction.
func (s *Summarizer) Summarize(ctx context.Context, prompt, transcript string) (string, error) {
	return s.client.complete(ctx, s.cfg.Model, s.cfg.Temperature, prompt, transcript, false)
}

// Metadata describes the summary configuration. The caller records the
// prompt actually used.
func (s *Summarizer) Metadata() domain.GenerationMetadata {
	return domain.GenerationMetadata{
		Provider:    "gemini",
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
	}
}

var (
	_ generation.Corrector  = (*Corrector)(nil)
	_ generation.Editor     = (*Editor)(nil)
	_ generation.Summarizer = (*Summarizer)(nil)
)
