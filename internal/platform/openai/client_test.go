package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/generation"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func contentResponse(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	payload := map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": content},
			},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestComplete(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		contentResponse(t, w, "bonjour")
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	content, err := client.Complete(context.Background(), "gpt-4o", 0.3, "fix the text", "bonjur", false)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", content)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "fix the text", gotReq.Messages[0].Content)
	assert.Equal(t, "bonjur", gotReq.Messages[1].Content)
	assert.InDelta(t, 0.3, gotReq.Temperature, 1e-9)
	assert.Nil(t, gotReq.ResponseFormat)
}

func TestCompleteJSONResponseFormat(t *testing.T) {
	var gotReq chatRequest
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		contentResponse(t, w, `{}`)
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "gpt-4o", 0, "prompt", "input", true)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"type": "json_object"}, gotReq.ResponseFormat)
}

func TestCompleteRateLimited(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "gpt-4o", 0, "prompt", "input", false)
	assert.ErrorIs(t, err, generation.ErrRateLimited)
	assert.True(t, generation.IsRateLimited(err))
}

func TestCompleteServerError(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "gpt-4o", 0, "prompt", "input", false)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.False(t, generation.IsRateLimited(err))
}

func TestCompleteClientError(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, err := NewClient(Config{APIKey: "bad-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "gpt-4o", 0, "prompt", "input", false)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
}

func TestCompleteRefusal(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": "", "refusal": "cannot help with that"},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "gpt-4o", 0, "prompt", "input", false)
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"choices": []any{}}))
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "gpt-4o", 0, "prompt", "input", false)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestCorrectSegments(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		var payload correctionPayload
		require.NoError(t, json.Unmarshal([]byte(req.Messages[1].Content), &payload))
		require.Len(t, payload.Segments, 2)
		assert.Equal(t, 1, payload.Segments[0].ID)

		contentResponse(t, w, `{"segments":[{"id":1,"text":"the cat"},{"id":2,"text":"the hat"}]}`)
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	corrector := NewCorrector(client, config.CorrectionConfig{Model: "gpt-4o", Prompt: "fix it", Temperature: 0.3})

	corrected, err := corrector.CorrectSegments(context.Background(), []string{"teh cat", "teh hat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"the cat", "the hat"}, corrected)
}

func TestCorrectSegmentsMissingIDKeepsOriginal(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		contentResponse(t, w, `{"segments":[{"id":2,"text":"the hat"}]}`)
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	corrector := NewCorrector(client, config.CorrectionConfig{Model: "gpt-4o", Prompt: "fix it"})

	corrected, err := corrector.CorrectSegments(context.Background(), []string{"teh cat", "teh hat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"teh cat", "the hat"}, corrected)
}

func TestCorrectSegmentsIgnoresOutOfRangeIDs(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		contentResponse(t, w, `{"segments":[{"id":0,"text":"x"},{"id":5,"text":"y"},{"id":1,"text":"the cat"}]}`)
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	corrector := NewCorrector(client, config.CorrectionConfig{Model: "gpt-4o", Prompt: "fix it"})

	corrected, err := corrector.CorrectSegments(context.Background(), []string{"teh cat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"the cat"}, corrected)
}

func TestCorrectSegmentsCodeFencedResponse(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		contentResponse(t, w, "```json\n{\"segments\":[{\"id\":1,\"text\":\"the cat\"}]}\n```")
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	corrector := NewCorrector(client, config.CorrectionConfig{Model: "gpt-4o", Prompt: "fix it"})

	corrected, err := corrector.CorrectSegments(context.Background(), []string{"teh cat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"the cat"}, corrected)
}

func TestCorrectSegmentsMalformedResponse(t *testing.T) {
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		contentResponse(t, w, "I corrected the text for you!")
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	corrector := NewCorrector(client, config.CorrectionConfig{Model: "gpt-4o", Prompt: "fix it"})

	_, err = corrector.CorrectSegments(context.Background(), []string{"teh cat"})
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestCorrectorMetadata(t *testing.T) {
	client, err := NewClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	corrector := NewCorrector(client, config.CorrectionConfig{Model: "gpt-4o", Prompt: "fix it", Temperature: 0.3})

	meta := corrector.Metadata()
	assert.Equal(t, "openai", meta.Provider)
	assert.Equal(t, "gpt-4o", meta.Model)
	assert.InDelta(t, 0.3, meta.Temperature, 1e-9)
	assert.Equal(t, "fix it", meta.Prompt)
}

func TestSummarize(t *testing.T) {
	var gotReq chatRequest
	server := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		contentResponse(t, w, "A lesson about Greek mythology.")
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	summarizer := NewSummarizer(client, config.SummaryConfig{Model: "gpt-4o", Temperature: 0.7})

	summary, err := summarizer.Summarize(context.Background(), "Summarize this lesson.", "Zeus was the king of the gods.")
	require.NoError(t, err)
	assert.Equal(t, "A lesson about Greek mythology.", summary)
	assert.Equal(t, "Summarize this lesson.", gotReq.Messages[0].Content)
	assert.Equal(t, "Zeus was the king of the gods.", gotReq.Messages[1].Content)
}
