package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger = (*CareLogger)(nil)
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func newBufferLogger(level LogLevel) (*CareLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"debug": LogLevelDebug, "INFO": LogLevelInfo, "": LogLevelInfo, "warning": LogLevelWarn, "error": LogLevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestCareLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "warn", lines[0]["msg"])
	assert.Equal(t, "error", lines[1]["msg"])
}

func TestCareLogger_ScopedAttributes(t *testing.T) {
	base, buf := newBufferLogger(LogLevelDebug)
	scoped := base.WithComponent("engine").WithSession("s-1").With("plan_len", 3)

	scoped.Info("running", "step", "intake")
	base.Info("unscoped")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "engine", lines[0]["component"])
	assert.Equal(t, "s-1", lines[0]["session_id"])
	assert.Equal(t, float64(3), lines[0]["plan_len"])
	assert.Equal(t, "intake", lines[0]["step"])
	assert.NotContains(t, lines[1], "component")
}

func TestLogStep(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	LogStep(l, "s-1", "vision", time.Millisecond, nil)
	LogStep(l, "s-1", "vision", time.Millisecond, errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Step completed", lines[0]["msg"])
	assert.Equal(t, true, lines[0]["success"])
	assert.Equal(t, "Step failed", lines[1]["msg"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "ERROR", lines[1]["level"])
}

func TestNoOpLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		var l Logger = NoOpLogger{}
		l.Info("ignored", "k", "v")
		LogModelCall(l, "openai", "llama3", time.Second, nil)
	})
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))
	l.Info("hello", "k", "v")
	l.Debug("filtered")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0]["msg"])
	assert.Equal(t, "v", lines[0]["k"])
}

func TestStartTimer(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	StartTimer(l, "analyze")()

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Operation completed", lines[0]["msg"])
	assert.Equal(t, "analyze", lines[0]["operation"])
}
