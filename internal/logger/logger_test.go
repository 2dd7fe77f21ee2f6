package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l := Setup(Options{Level: "warn", Output: &buf})
	l.Info("hidden")
	slog.Warn("cache write failed", "key", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	// A buffer is not a terminal, so output is JSON.
	assert.Contains(t, out, `"msg":"cache write failed"`)
	assert.Contains(t, out, `"key":"abc"`)
}
