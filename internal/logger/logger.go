// Package logger defines the structured logging surface for Tabula and the
// parameter sanitizer that keeps secrets out of query logs.
package logger

import "log/slog"

// Logger is the structured logging interface accepted by the database
// handle. Arguments are alternating key-value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoopLogger discards everything. It is the default when no logger is
// configured so the query path never nil-checks mid-statement.
type NoopLogger struct{}

// Debug does nothing.
func (NoopLogger) Debug(string, ...any) {}

// Info does nothing.
func (NoopLogger) Info(string, ...any) {}

// Warn does nothing.
func (NoopLogger) Warn(string, ...any) {}

// Error does nothing.
func (NoopLogger) Error(string, ...any) {}

// SlogAdapter bridges a *slog.Logger onto the Logger interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps an slog.Logger. The logger must not be nil.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Debug forwards to slog at debug level.
func (a *SlogAdapter) Debug(msg string, args ...any) { a.logger.Debug(msg, args...) }

// Info forwards to slog at info level.
func (a *SlogAdapter) Info(msg string, args ...any) { a.logger.Info(msg, args...) }

// Warn forwards to slog at warn level.
func (a *SlogAdapter) Warn(msg string, args ...any) { a.logger.Warn(msg, args...) }

// Error forwards to slog at error level.
func (a *SlogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
