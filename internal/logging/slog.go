package logging

import (
	"context"
	"log/slog"
)

// SlogLogger adapts the standard library's slog to the Logger interface.
// It is the only implementation the server wires in; the interface exists
// so tests can substitute a silent or capturing logger.
type SlogLogger struct {
	base *slog.Logger
}

var _ Logger = (*SlogLogger)(nil)

// NewSlogLogger wraps an already-configured *slog.Logger. Handler choice
// (text for development, JSON for production) stays with the caller.
func NewSlogLogger(base *slog.Logger) *SlogLogger {
	return &SlogLogger{base: base}
}

// Debug is not part of the Logger interface; it is available to callers
// holding the concrete type.
func (sl *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	sl.base.DebugContext(ctx, msg, args...)
}

func (sl *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	sl.base.InfoContext(ctx, msg, args...)
}

func (sl *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	sl.base.WarnContext(ctx, msg, args...)
}

func (sl *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	sl.base.ErrorContext(ctx, msg, args...)
}

// With returns a child logger whose entries always carry the given
// key-value pairs.
func (sl *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{base: sl.base.With(args...)}
}
