// Package llm is the General QA Fallback: a thin client for hosted chat models
// used only when no academic intent matches. It never sees student records.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ptit-hub/study-assistant/internal/domain/shared"
	"github.com/ptit-hub/study-assistant/pkg/circuitbreaker"
)

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var (
	// ErrNotConfigured means no provider or no API key was configured.
	ErrNotConfigured = shared.NewDomainError("llm", "Ask", shared.ErrNotConfigured, "general QA provider is not configured")

	// ErrEmptyAnswer means the provider answered without any text.
	ErrEmptyAnswer = errors.New("llm returned an empty answer")
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("llm status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("llm status %d", e.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig configures the fallback client.
type ClientConfig struct {
	// Provider is "openai", "gemini" or empty (disabled).
	Provider string

	APIKey string

	// Model defaults per provider: gpt-4o-mini or gemini-1.5-flash-latest.
	Model string

	// BaseURL overrides the provider endpoint root.
	BaseURL string

	Timeout     time.Duration
	Temperature float32
	MaxTokens   int

	// RatePerSec and Burst size the client-side token bucket. Zero disables it.
	RatePerSec float64
	Burst      int

	Breaker    *circuitbreaker.CircuitBreaker
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultClientConfig returns sensible defaults for provider.
func DefaultClientConfig(provider, apiKey string) ClientConfig {
	return ClientConfig{
		Provider:    strings.ToLower(strings.TrimSpace(provider)),
		APIKey:      apiKey,
		Timeout:     15 * time.Second,
		Temperature: 0.6,
		MaxTokens:   512,
		RatePerSec:  2,
		Burst:       4,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client asks a hosted chat model one question at a time.
type Client struct {
	config  ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a client. A client with no provider or key is valid and
// answers every call with ErrNotConfigured.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	if config.Model == "" {
		config.Model = defaultModel(config.Provider)
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL(config.Provider)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger.With("component", "llm", "provider", config.Provider)
	breaker := config.Breaker
	if breaker == nil {
		breaker = circuitbreaker.LLMBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		})
	}

	var limiter *rate.Limiter
	if config.RatePerSec > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RatePerSec), burst)
	}

	return &Client{
		config:  config,
		http:    httpClient,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}
}

// Configured reports whether Ask can reach a provider.
func (c *Client) Configured() bool {
	if c == nil || c.config.APIKey == "" {
		return false
	}
	return c.config.Provider == ProviderOpenAI || c.config.Provider == ProviderGemini
}

// Ask sends message with systemPrompt (DefaultSystemPrompt when empty) and
// returns the trimmed answer text.
func (c *Client) Ask(ctx context.Context, message, systemPrompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", shared.WrapError("llm", "Ask", shared.ErrUnavailable, "rate limiter", err)
		}
	}

	var answer string
	start := time.Now()
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		switch c.config.Provider {
		case ProviderGemini:
			answer, err = c.askGemini(ctx, message, systemPrompt)
		default:
			answer, err = c.askOpenAI(ctx, message, systemPrompt)
		}
		return err
	})
	if err != nil {
		c.logger.Warn("llm request failed", "duration_ms", time.Since(start).Milliseconds(), "error", err)
		if errors.Is(err, ErrEmptyAnswer) {
			return "", err
		}
		return "", shared.WrapError("llm", "Ask", shared.ErrUnavailable, "provider call", err)
	}

	c.logger.Debug("llm answered", "duration_ms", time.Since(start).Milliseconds(), "chars", len(answer))
	return answer, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OPENAI-COMPATIBLE
// ══════════════════════════════════════════════════════════════════════════════

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) askOpenAI(ctx context.Context, message, systemPrompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}
	var decoded chatCompletionResponse
	if err := c.post(ctx, c.config.BaseURL+"/chat/completions", headers, payload, &decoded); err != nil {
		return "", err
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyAnswer
	}
	return content, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GEMINI
// ══════════════════════════════════════════════════════════════════════════════

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) askGemini(ctx context.Context, message, systemPrompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: systemPrompt + "\n\nInput:\n" + message}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.config.BaseURL, url.PathEscape(c.config.Model), url.QueryEscape(c.config.APIKey))

	var decoded geminiResponse
	if err := c.post(ctx, endpoint, nil, payload, &decoded); err != nil {
		return "", err
	}
	if len(decoded.Candidates) == 0 {
		return "", ErrEmptyAnswer
	}
	var texts []string
	for _, p := range decoded.Candidates[0].Content.Parts {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return "", ErrEmptyAnswer
	}
	return strings.Join(texts, "\n"), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP
// ══════════════════════════════════════════════════════════════════════════════

func (c *Client) post(ctx context.Context, endpoint string, headers map[string]string, payload []byte, out interface{}) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Message: providerError(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// providerError extracts {"error":{"message":...}}, the shape both providers use.
func providerError(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error.Message
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-1.5-flash-latest"
	}
	return "gpt-4o-mini"
}

func defaultBaseURL(provider string) string {
	if provider == ProviderGemini {
		return "https://generativelanguage.googleapis.com/v1beta"
	}
	return "https://api.openai.com/v1"
}
