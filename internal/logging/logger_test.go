package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), input)
	}
	assert.True(t, ValidLevel("warn"))
	assert.False(t, ValidLevel("verbose"))
}

func TestNewJSONFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "json", Output: &buf})

	logger.Debug("dispatch", "group", "welcome", "item", "channel")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "dispatch", record["msg"])
	assert.Equal(t, "welcome", record["group"])
	assert.Equal(t, "DEBUG", record["level"])
}

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestAutoFormatFallsBackToJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	New(Config{Format: "auto", Output: &buf}).Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
}

func TestRedactsSecrets(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Secrets: []string{"s3cret-admin-token", "  "}})

	logger.Info("request with s3cret-admin-token",
		"authorization", "Bearer abcdefghijklmnop",
		slog.Group("http", slog.String("token", "s3cret-admin-token")),
	)

	out := buf.String()
	assert.NotContains(t, out, "s3cret-admin-token")
	assert.NotContains(t, out, "abcdefghijklmnop")
	assert.Contains(t, out, redacted)
}

func TestRedactingHandlerWithAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	handler := NewRedactingHandler(slog.NewTextHandler(&buf, nil), NewRedactor("hunter2"))
	slog.New(handler).With("password", "hunter2").WithGroup("g").Info("ok")

	assert.NotContains(t, buf.String(), "hunter2")
}

func TestNewNop(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { NewNop().Error("ignored") })
}
