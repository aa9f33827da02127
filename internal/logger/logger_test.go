package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopLoggerDoesNothing(t *testing.T) {
	var l Logger = NoopLogger{}

	l.Debug("msg")
	l.Info("msg", "key", "value")
	l.Warn("msg", "key", "value")
	l.Error("msg", "error", "boom")
}

func TestSlogAdapterLevels(t *testing.T) {
	tests := []struct {
		name      string
		logFunc   func(Logger, string, ...any)
		wantLevel string
	}{
		{"debug", func(l Logger, msg string, args ...any) { l.Debug(msg, args...) }, "DEBUG"},
		{"info", func(l Logger, msg string, args ...any) { l.Info(msg, args...) }, "INFO"},
		{"warn", func(l Logger, msg string, args ...any) { l.Warn(msg, args...) }, "WARN"},
		{"error", func(l Logger, msg string, args ...any) { l.Error(msg, args...) }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))

			tt.logFunc(l, "query executed", "rows", "3")

			out := buf.String()
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, "query executed")
			assert.Contains(t, out, "rows=3")
		})
	}
}

func TestSlogAdapterJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.Info("query executed",
		"sql", "SELECT id FROM posts WHERE author_id = ?",
		"duration_ms", 12,
	)

	out := buf.String()
	assert.Contains(t, out, `"msg":"query executed"`)
	assert.Contains(t, out, `"sql":"SELECT id FROM posts WHERE author_id = ?"`)
	assert.Contains(t, out, `"duration_ms":12`)
}

func BenchmarkNoopLogger(b *testing.B) {
	var l Logger = NoopLogger{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Info("query executed", "sql", "SELECT 1", "duration_ms", 1)
	}
}
