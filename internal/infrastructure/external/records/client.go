package records

import (
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

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/internal/domain/shared"
	"github.com/ptit-hub/study-assistant/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the records backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL, e.g. http://127.0.0.1:5000
	BaseURL string

	// Timeout bounds every request. A timeout is a final failure for the turn.
	Timeout time.Duration

	// Breaker guards the backend. nil uses circuitbreaker.RecordsBreaker,
	// which ignores 4xx answers.
	Breaker *circuitbreaker.CircuitBreaker

	// MaxResponseBytes caps a response body. Larger bodies fail the fetch.
	MaxResponseBytes int64

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:          baseURL,
		Timeout:          3 * time.Second,
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// DefaultMaxResponseBytes bounds one records document.
const DefaultMaxResponseBytes = 4 << 20

// ErrResponseTooLarge is returned for bodies over MaxResponseBytes.
var ErrResponseTooLarge = errors.New("records: response body too large")

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client reads student records from the backend over HTTP. It never retries:
// one failed fetch is final for the turn and surfaces as shared.ErrUnavailable.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.CircuitBreaker
	mapper     *Mapper
}

var _ academic.RecordsProvider = (*Client)(nil)

// NewClient creates a new records client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger.With("component", "records")
	breaker := config.Breaker
	if breaker == nil {
		breaker = circuitbreaker.RecordsBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}, circuitbreaker.WithIsFailure(isBackendFailure))
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		breaker:    breaker,
		mapper:     NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// FetchContext fetches the full records snapshot for a student.
func (c *Client) FetchContext(ctx context.Context, userID string) (*academic.Snapshot, error) {
	const op = "FetchContext"

	var dto ContextDTO
	if err := c.doRequest(ctx, "/api/chatbot/context", userID, &dto); err != nil {
		return nil, shared.WrapError("records", op, shared.ErrUnavailable, "fetch context", err)
	}
	return c.mapper.SnapshotFromDTO(&dto), nil
}

// FetchDeadlines fetches the student's deadlines and exam slots.
func (c *Client) FetchDeadlines(ctx context.Context, userID string) ([]academic.Deadline, error) {
	const op = "FetchDeadlines"

	var dto DeadlinesResponseDTO
	if err := c.doRequest(ctx, "/api/deadlines", userID, &dto); err != nil {
		return nil, shared.WrapError("records", op, shared.ErrUnavailable, "fetch deadlines", err)
	}
	return c.mapper.DeadlinesFromDTO(dto.Data), nil
}

// FetchUserName fetches the student's display name. An absent name is "" with
// no error.
func (c *Client) FetchUserName(ctx context.Context, userID string) (string, error) {
	const op = "FetchUserName"

	var dto UserNameDTO
	if err := c.doRequest(ctx, "/api/users/name", userID, &dto); err != nil {
		return "", shared.WrapError("records", op, shared.ErrUnavailable, "fetch user name", err)
	}
	return strings.TrimSpace(string(dto.Name)), nil
}

// BreakerState reports the circuit state for readiness probes.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	resp.Body.Close()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs one GET through the circuit breaker.
func (c *Client) doRequest(ctx context.Context, path, userID string, result interface{}) error {
	start := time.Now()
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.doSingleRequest(ctx, path, userID, result)
	})

	if err != nil {
		c.logger.Warn("records request failed",
			"path", path,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return err
	}
	c.logger.Debug("records request",
		"path", path,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, path, userID string, result interface{}) error {
	params := url.Values{}
	params.Set("userId", userID)
	fullURL := c.config.BaseURL + path + "?" + params.Encode()

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	limit := c.config.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if int64(len(respBody)) > limit {
		return fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, limit)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d", e.Code)
}

// isBackendFailure reports whether err says the backend is unhealthy. A 4xx
// answer means the backend is up, so it does not trip the breaker.
func isBackendFailure(err error) bool {
	var se *StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
