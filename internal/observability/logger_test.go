package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo},
		{in: "loud", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestSetup(t *testing.T) {
	prev := logger
	t.Cleanup(func() { logger = prev })

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		Setup(&buf, "warn", "json")

		Logger().Info("dropped")
		Logger().Warn("kept", "n", 1)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
		assert.Equal(t, "kept", rec["msg"])
		assert.Equal(t, "WARN", rec["level"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		Setup(&buf, "debug", "TEXT")

		Logger().Debug("hello", "k", "v")

		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "msg=hello k=v")
	})
}

func TestLoggerFromContext_RequestID(t *testing.T) {
	prev := logger
	t.Cleanup(func() { logger = prev })

	var buf bytes.Buffer
	Setup(&buf, "info", "text")

	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
	LoggerFromContext(ctx).Info("handled")
	assert.Contains(t, buf.String(), "request_id=req-1")

	assert.Empty(t, RequestID(context.Background()))
	assert.Same(t, Logger(), LoggerFromContext(context.Background()))
}
