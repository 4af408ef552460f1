package component

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_LocalOnly(t *testing.T) {
	var buf bytes.Buffer
	local := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewLogger("curve-handler", nil, local)

	logger.Debug("debug message")
	logger.Info("info message", "signals", 3)
	logger.Warn("warn message")
	logger.Error("error message", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "signals=3")
	assert.Contains(t, out, "component=curve-handler")
	assert.Contains(t, out, "boom")
}

func TestLogger_NilSlogFallsBack(t *testing.T) {
	logger := NewLogger("curve-handler", nil, nil)
	// Must not panic without a configured slog logger
	logger.Info("still works")
}
