package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNew_JSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{
		Output: &buf,
		Level:  slog.LevelInfo,
		Format: FormatFor(true),
		Attrs:  []any{"app", "study-assistant"},
	})

	l.Debug("hidden")
	l.Info("turn answered", "intent", "gpa")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "turn answered", rec["msg"])
	assert.Equal(t, "study-assistant", rec["app"])
	assert.Equal(t, "gpa", rec["intent"])
}

func TestNew_TextByDefault(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Output = &buf

	New(opts).Info("hello", "k", "v")

	assert.Contains(t, buf.String(), "msg=hello k=v")
	assert.Equal(t, FormatText, FormatFor(false))
}

func TestContextPropagation(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := New(Options{Output: &buf})
	ctx := WithContext(context.Background(), l.With("request_id", "r1"))

	FromContext(ctx).Info("scoped")
	assert.Contains(t, buf.String(), "request_id=r1")
}
