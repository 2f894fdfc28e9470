package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123:secret"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig(testToken)
	cfg.BaseURL = srv.URL
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetryDelay = 5 * time.Millisecond
	cfg.ErrorBackoff = time.Millisecond
	cfg.PollTimeout = time.Second
	return NewClient(cfg)
}

func writeOK(w http.ResponseWriter, result any) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(APIResponse{OK: true, Result: raw})
}

func TestSendText(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+testToken+"/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeOK(w, Message{MessageID: 7, Chat: &Chat{ID: 42}})
	})

	require.NoError(t, c.SendText(context.Background(), 42, "Your GPA is 3.12 / 4.0"))
	assert.Equal(t, float64(42), got["chat_id"])
	assert.Equal(t, "Your GPA is 3.12 / 4.0", got["text"])
	assert.NotContains(t, got, "parse_mode")
}

func TestSendMessage_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
			return
		}
		writeOK(w, Message{MessageID: 1})
	})

	_, err := c.SendMessage(context.Background(), SendMessageParams{ChatID: 1, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendMessage_HonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_ = json.NewEncoder(w).Encode(APIResponse{
				ErrorCode:   429,
				Description: "Too Many Requests: retry after 1",
				Parameters:  &ResponseParameters{RetryAfter: 1},
			})
			return
		}
		writeOK(w, Message{MessageID: 1})
	})

	_, err := c.SendMessage(context.Background(), SendMessageParams{ChatID: 1, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendMessage_ClientErrorsAreFinal(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(APIResponse{ErrorCode: 403, Description: "Forbidden: bot was blocked by the user"})
	})

	_, err := c.SendMessage(context.Background(), SendMessageParams{ChatID: 1, Text: "hi"})
	require.Error(t, err)
	assert.True(t, IsBlocked(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransportErrorsDoNotLeakToken(t *testing.T) {
	cfg := DefaultClientConfig(testToken)
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.RetryAttempts = 0
	c := NewClient(cfg)

	_, err := c.GetMe(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestStartPolling_AdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var offsets []float64
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		off, _ := body["offset"].(float64)
		offsets = append(offsets, off)

		switch calls.Add(1) {
		case 1:
			writeOK(w, []Update{
				{UpdateID: 10, Message: &Message{Text: "gpa"}},
				{UpdateID: 11, Message: &Message{Text: "credits"}},
			})
		case 2:
			_ = json.NewEncoder(w).Encode(APIResponse{ErrorCode: 502, Description: "Bad Gateway"})
		default:
			cancel()
			writeOK(w, []Update{})
		}
	})

	var batches [][]Update
	err := c.StartPolling(ctx, func(_ context.Context, updates []Update) {
		batches = append(batches, updates)
	})

	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
	require.GreaterOrEqual(t, len(offsets), 3)
	assert.Equal(t, []float64{0, 12, 12}, offsets[:3])
}

func TestExtractCommand(t *testing.T) {
	msg := &Message{
		Text:     "/link@ptit_assistant_bot B21DCCN001",
		Entities: []MessageEntity{{Type: "bot_command", Offset: 0, Length: 24}},
	}
	assert.Equal(t, "link", ExtractCommand(msg))
	assert.Equal(t, "B21DCCN001", ExtractCommandArgs(msg))

	plain := &Message{Text: "what is my gpa"}
	assert.Empty(t, ExtractCommand(plain))
	assert.Empty(t, ExtractCommandArgs(plain))
	assert.Empty(t, ExtractCommand(nil))
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitText("short", 10))

	parts := SplitText("line one\nline two\nline three", 18)
	assert.Equal(t, []string{"line one\nline two", "line three"}, parts)

	long := strings.Repeat("a", 25)
	parts = SplitText(long, 10)
	assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 5)}, parts)

	// Vietnamese text stays on rune boundaries.
	parts = SplitText("điểm điểm", 5)
	assert.Equal(t, "điểm ", parts[0])
	assert.Equal(t, "điểm", parts[1])
}
