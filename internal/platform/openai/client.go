// Package openai implements the generation interfaces on top of any
// OpenAI-compatible chat completion endpoint. Setting BaseURL lets the
// same client talk to OpenRouter, Anthropic's compatibility endpoint,
// or a local server.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pierre-chaville/lessons/internal/generation"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultHTTPTimeout = 120 * time.Second
)

// Config captures the runtime settings required to talk to the API.
type Config struct {
	APIKey  string
	BaseURL string
}

// Client wraps an OpenAI-compatible chat completion API. Retries are
// the caller's concern; the client classifies failures so the retry
// layer can tell rate limits from permanent errors.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key required", generation.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete issues a chat completion request and returns the content of
// the first non-empty choice.
func (c *Client) Complete(ctx context.Context, model string, temperature float64, systemPrompt, userPrompt string, jsonResponse bool) (string, error) {
	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	if jsonResponse {
		req.ResponseFormat = map[string]string{"type": "json_object"}
	}

	parsed, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}

	for _, choice := range parsed.Choices {
		if choice.Message.Refusal != "" {
			return "", fmt.Errorf("%w: %s", generation.ErrContentBlocked, choice.Message.Refusal)
		}
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", fmt.Errorf("%w: response contains no content", generation.ErrInvalidResponse)
}

func (c *Client) send(ctx context.Context, payload chatRequest) (chatResponse, error) {
	var parsed chatResponse

	encoded, err := json.Marshal(payload)
	if err != nil {
		return parsed, fmt.Errorf("%w: encode request: %v", generation.ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return parsed, fmt.Errorf("%w: build request: %v", generation.ErrGenerationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return parsed, err
		}
		return parsed, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return parsed, fmt.Errorf("%w: read response: %v", generation.ErrTransientFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return parsed, classifyStatus(resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return parsed, fmt.Errorf("%w: decode response: %v", generation.ErrInvalidResponse, err)
	}
	if parsed.Error != nil {
		return parsed, fmt.Errorf("%w: %s", generation.ErrGenerationFailed, strings.TrimSpace(parsed.Error.Message))
	}
	return parsed, nil
}

func classifyStatus(status int, body []byte, retryAfter string) error {
	snippet := payloadSnippet(string(body))
	switch {
	case status == http.StatusTooManyRequests:
		if d, ok := parseRetryAfter(retryAfter); ok {
			return fmt.Errorf("%w: http 429 (retry after %s): %s", generation.ErrRateLimited, d, snippet)
		}
		return fmt.Errorf("%w: http 429: %s", generation.ErrRateLimited, snippet)
	case status == http.StatusRequestTimeout || status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", generation.ErrTransientFailure, status, snippet)
	default:
		return fmt.Errorf("%w: http %d: %s", generation.ErrGenerationFailed, status, snippet)
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

func payloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}

// decodeModelJSON decodes JSON from a model response, stripping the
// code fences some models wrap payloads in.
func decodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}

	sanitized := stripCodeFence(trimmed)
	if start := strings.IndexAny(sanitized, "{["); start > 0 {
		end := strings.LastIndexAny(sanitized, "}]")
		if end > start {
			sanitized = sanitized[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("decode model payload: %w (snippet: %s)", err, payloadSnippet(trimmed))
	}
	return nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimPrefix(trimmed, "```")
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
