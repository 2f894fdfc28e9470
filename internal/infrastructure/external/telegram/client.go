// Package telegram is a small Telegram Bot API client: long polling for
// updates and plain-text replies.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ptit-hub/study-assistant/pkg/retry"
)

// MaxMessageLength is the Bot API limit for one text message, in UTF-16
// code units. Replies are split below it.
const MaxMessageLength = 4096

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Telegram client.
type ClientConfig struct {
	// Token is the Telegram Bot API token
	Token string

	// BaseURL is the Telegram Bot API base URL (default: https://api.telegram.org)
	BaseURL string

	// PollTimeout is the long polling timeout sent to getUpdates.
	PollTimeout time.Duration

	// Timeout is the HTTP request timeout. It is raised above PollTimeout
	// when needed.
	Timeout time.Duration

	// RetryAttempts is the number of retries after a failed send.
	RetryAttempts int

	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration

	// MaxRetryDelay caps backoff and server-requested waits.
	MaxRetryDelay time.Duration

	// ErrorBackoff is the pause after a failed getUpdates.
	ErrorBackoff time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:         token,
		BaseURL:       "https://api.telegram.org",
		PollTimeout:   30 * time.Second,
		Timeout:       40 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		MaxRetryDelay: 30 * time.Second,
		ErrorBackoff:  5 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TELEGRAM API TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Update represents a Telegram update.
type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"edited_message,omitempty"`
}

// Message represents a Telegram message.
type Message struct {
	MessageID int64           `json:"message_id"`
	From      *User           `json:"from,omitempty"`
	Chat      *Chat           `json:"chat"`
	Date      int64           `json:"date"`
	Text      string          `json:"text,omitempty"`
	Entities  []MessageEntity `json:"entities,omitempty"`
}

// User represents a Telegram user.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// MessageEntity represents a message entity (command, mention, etc.).
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// APIResponse represents a Telegram API response.
type APIResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters contains additional error parameters.
type ResponseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Telegram Bot API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger

	// updateOffset is owned by StartPolling.
	updateOffset int64
}

// NewClient creates a new Telegram client.
func NewClient(config ClientConfig) *Client {
	defaults := DefaultClientConfig(config.Token)
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = defaults.PollTimeout
	}
	if config.Timeout <= config.PollTimeout {
		config.Timeout = config.PollTimeout + 10*time.Second
	}
	if config.MaxRetryDelay <= 0 {
		config.MaxRetryDelay = defaults.MaxRetryDelay
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger.With("component", "telegram_client"),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDING MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// SendMessageParams contains parameters for sending a message.
type SendMessageParams struct {
	ChatID            int64
	Text              string
	DisableWebPreview bool
	ReplyToMessageID  int64
}

// SendMessage sends a plain text message. Replies carry no parse mode, so
// record data is never interpreted as markup.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Message, error) {
	body := map[string]interface{}{
		"chat_id": params.ChatID,
		"text":    params.Text,
	}
	if params.DisableWebPreview {
		body["disable_web_page_preview"] = true
	}
	if params.ReplyToMessageID > 0 {
		body["reply_to_message_id"] = params.ReplyToMessageID
	}

	var message Message
	if err := c.callAPI(ctx, "sendMessage", body, &message); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &message, nil
}

// SendText sends text, split into as many messages as the length limit
// requires.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	for _, part := range SplitText(text, MaxMessageLength) {
		if _, err := c.SendMessage(ctx, SendMessageParams{
			ChatID:            chatID,
			Text:              part,
			DisableWebPreview: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

// SendTyping shows the typing indicator for a few seconds. It is best
// effort and never retried.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	return c.doAPICall(ctx, "sendChatAction", map[string]interface{}{
		"chat_id": chatID,
		"action":  "typing",
	}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// GETTING UPDATES
// ══════════════════════════════════════════════════════════════════════════════

// GetUpdates fetches updates using long polling. It is a single attempt;
// the polling loop owns backoff.
func (c *Client) GetUpdates(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]Update, error) {
	body := map[string]interface{}{
		"timeout":         int(timeout / time.Second),
		"allowed_updates": []string{"message"},
	}
	if offset > 0 {
		body["offset"] = offset
	}
	if limit > 0 {
		body["limit"] = limit
	}

	var updates []Update
	if err := c.doAPICall(ctx, "getUpdates", body, &updates); err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	return updates, nil
}

// DeleteWebhook removes the webhook so long polling can receive updates.
func (c *Client) DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error {
	body := map[string]interface{}{
		"drop_pending_updates": dropPendingUpdates,
	}
	if err := c.callAPI(ctx, "deleteWebhook", body, nil); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// GetMe returns information about the bot. It doubles as a token check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.callAPI(ctx, "getMe", nil, &user); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &user, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// API CALL HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// callAPI makes a call to the Telegram Bot API with retries.
func (c *Client) callAPI(ctx context.Context, method string, body map[string]interface{}, result interface{}) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		return c.doAPICall(ctx, method, body, result)
	},
		retry.WithMaxAttempts(c.config.RetryAttempts+1),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(c.config.MaxRetryDelay),
		retry.WithRetryIf(isRetryableError),
		retry.WithDelayFor(retryAfter),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			c.logger.Debug("retrying telegram call", "method", method, "attempt", attempt, "delay", delay.String(), "error", err)
		}),
	)
}

// doAPICall performs a single API call.
func (c *Client) doAPICall(ctx context.Context, method string, body map[string]interface{}, result interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token, method)

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL embeds the token; keep it out of errors and logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("http request %s: %w", method, urlErr.Err)
		}
		return fmt.Errorf("http request %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 500 {
			return &APIError{Code: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if !apiResp.OK {
		apiErr := &APIError{
			Code:        apiResp.ErrorCode,
			Description: apiResp.Description,
		}
		if apiResp.Parameters != nil {
			apiErr.RetryAfter = apiResp.Parameters.RetryAfter
		}
		return apiErr
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// APIError represents a Telegram API error.
type APIError struct {
	Code        int
	Description string
	RetryAfter  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// IsBlocked reports whether the user blocked the bot or the chat is gone.
// Such sends will never succeed.
func IsBlocked(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden
}

// isRetryableError retries rate limits, server errors and network failures.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}

	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func retryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// LONG POLLING RUNNER
// ══════════════════════════════════════════════════════════════════════════════

// BatchHandler handles one getUpdates batch. Polling resumes once it
// returns.
type BatchHandler func(ctx context.Context, updates []Update)

// StartPolling long-polls for updates until ctx ends. It returns nil on
// cancellation.
func (c *Client) StartPolling(ctx context.Context, handler BatchHandler) error {
	c.logger.Info("starting telegram long polling", "timeout", c.config.PollTimeout.String())

	for {
		if ctx.Err() != nil {
			c.logger.Info("stopping telegram long polling")
			return nil
		}

		updates, err := c.GetUpdates(ctx, c.updateOffset, 100, c.config.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("failed to get updates", "error", err)

			wait := c.config.ErrorBackoff
			if hint := retryAfter(err); hint > wait {
				wait = hint
			}
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}

		if len(updates) == 0 {
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= c.updateOffset {
				c.updateOffset = update.UpdateID + 1
			}
		}
		handler(ctx, updates)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// UTILITY METHODS
// ══════════════════════════════════════════════════════════════════════════════

// ExtractCommand extracts the command from a message (without the /).
func ExtractCommand(msg *Message) string {
	if msg == nil || msg.Text == "" {
		return ""
	}

	for _, entity := range msg.Entities {
		if entity.Type == "bot_command" && entity.Offset == 0 && entity.Length > 1 && entity.Length <= len(msg.Text) {
			cmd := msg.Text[1:entity.Length]
			// Remove bot username if present (@botname)
			cmd, _, _ = strings.Cut(cmd, "@")
			return cmd
		}
	}
	return ""
}

// ExtractCommandArgs extracts arguments after the command.
func ExtractCommandArgs(msg *Message) string {
	if msg == nil || msg.Text == "" {
		return ""
	}

	for _, entity := range msg.Entities {
		if entity.Type == "bot_command" && entity.Offset == 0 && entity.Length < len(msg.Text) {
			return strings.TrimSpace(msg.Text[entity.Length:])
		}
	}
	return ""
}

// IsPrivateChat checks if the message is from a private chat.
func IsPrivateChat(msg *Message) bool {
	return msg != nil && msg.Chat != nil && msg.Chat.Type == "private"
}

// SplitText cuts text into chunks of at most limit UTF-16 code units,
// preferring line breaks.
func SplitText(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var parts []string
	for utf16Len(text) > limit {
		cut := cutPoint(text, limit)
		parts = append(parts, text[:cut])
		text = text[cut:]
		if len(text) > 0 && text[0] == '\n' {
			text = text[1:]
		}
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

// cutPoint returns the byte index of the last newline that keeps the head
// within limit, or the last rune boundary within limit if there is none.
func cutPoint(text string, limit int) int {
	units, lastNL, lastFit := 0, -1, 0
	for i, r := range text {
		n := 1
		if r >= 0x10000 {
			n = 2
		}
		if units+n > limit {
			break
		}
		units += n
		lastFit = i + len(string(r))
		if r == '\n' {
			lastNL = i
		}
	}
	if lastNL > 0 {
		return lastNL
	}
	return lastFit
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
