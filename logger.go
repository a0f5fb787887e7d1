package segreduce

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/hupe1980/segreduce/policy"
)

// Logger wraps slog.Logger with segreduce-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDispatchID adds the dispatch correlation id.
func (l *Logger) WithDispatchID(id uuid.UUID) *Logger {
	return &Logger{
		Logger: l.Logger.With("dispatch_id", id.String()),
	}
}

// WithArch adds the architecture generation policies were resolved for.
func (l *Logger) WithArch(arch policy.Arch) *Logger {
	return &Logger{
		Logger: l.Logger.With("arch", arch.String()),
	}
}

// WithCount adds a segment count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("segments", count),
	}
}

// LogTransition logs a dispatch state change.
func (l *Logger) LogTransition(ctx context.Context, from, to State) {
	l.DebugContext(ctx, "dispatch state",
		"from", from.String(),
		"to", to.String(),
	)
}

// LogSizing logs the result of a sizing call.
func (l *Logger) LogSizing(ctx context.Context, width OffsetWidth, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sizing failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sizing completed",
			"offset_width", width.String(),
			"storage_bytes", bytes,
		)
	}
}

// LogLaunch logs a launch enqueued on a stream.
func (l *Logger) LogLaunch(ctx context.Context, name string, groups, groupWidth int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "launch rejected",
			"launch", name,
			"groups", groups,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "launch enqueued",
			"launch", name,
			"groups", groups,
			"group_width", groupWidth,
		)
	}
}

// LogDispatch logs the result of an execution call.
func (l *Logger) LogDispatch(ctx context.Context, elements int64, launches int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dispatch failed",
			"elements", elements,
			"launches", launches,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "dispatch enqueued",
			"elements", elements,
			"launches", launches,
		)
	}
}
