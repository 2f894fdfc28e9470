package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptit-hub/study-assistant/internal/domain/shared"
)

func newOpenAIClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig("openai", "sk-test")
	cfg.BaseURL = srv.URL + "/v1/"
	cfg.RatePerSec = 0
	return NewClient(cfg)
}

func TestClient_NotConfigured(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		key      string
	}{
		{"no provider", "", "sk-test"},
		{"no key", "openai", ""},
		{"unknown provider", "claude", "k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(DefaultClientConfig(tt.provider, tt.key))
			assert.False(t, c.Configured())

			_, err := c.Ask(context.Background(), "hello", "")
			assert.ErrorIs(t, err, ErrNotConfigured)
			assert.True(t, shared.IsNotConfigured(err))
		})
	}
}

func TestClient_AskOpenAI(t *testing.T) {
	var got chatRequest
	c := newOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  Use spaced repetition.  "}},
			},
		})
	})

	answer, err := c.Ask(context.Background(), "how to study", "")
	require.NoError(t, err)
	assert.Equal(t, "Use spaced repetition.", answer)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.6, got.Temperature, 1e-6)
	assert.Equal(t, 512, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "how to study", got.Messages[1].Content)
}

func TestClient_CustomSystemPrompt(t *testing.T) {
	var got chatRequest
	c := newOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := c.Ask(context.Background(), "subjects = []", "You are a study analyst.")
	require.NoError(t, err)
	assert.Equal(t, "You are a study analyst.", got.Messages[0].Content)
}

func TestClient_EmptyAnswer(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"content":"   "}}]}`} {
		c := newOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		_, err := c.Ask(context.Background(), "hi", "")
		assert.ErrorIs(t, err, ErrEmptyAnswer)
	}
}

func TestClient_StatusError(t *testing.T) {
	c := newOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	})

	_, err := c.Ask(context.Background(), "hi", "")
	require.Error(t, err)
	assert.True(t, shared.IsUnavailable(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, "invalid api key", statusErr.Message)
}

func TestClient_AskGemini(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash-latest:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Part one."},{"text":""},{"text":"Part two."}]}}]}`))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig("Gemini", "g-key")
	cfg.BaseURL = srv.URL + "/v1beta"
	c := NewClient(cfg)

	answer, err := c.Ask(context.Background(), "what is recursion", "be brief")
	require.NoError(t, err)
	assert.Equal(t, "Part one.\nPart two.", answer)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "be brief\n\nInput:\nwhat is recursion", got.Contents[0].Parts[0].Text)
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	c := newOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})
	cfg := c.config
	cfg.RatePerSec = 0.001
	cfg.Burst = 1
	limited := NewClient(cfg)

	_, err := limited.Ask(context.Background(), "first", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = limited.Ask(ctx, "second", "")
	assert.True(t, shared.IsUnavailable(err))
}
