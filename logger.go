package sfdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with sfdb-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPath adds a database path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogOpen logs the outcome of an open call.
func (l *Logger) LogOpen(ctx context.Context, created bool, attempts int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"attempts", attempts,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "open completed",
		"created", created,
		"attempts", attempts,
	)
}

// LogAppend logs an append operation.
func (l *Logger) LogAppend(ctx context.Context, index, count uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "append completed",
		"index", index,
		"count", count,
	)
}

// LogRead logs a range read.
func (l *Logger) LogRead(ctx context.Context, offset, num uint32, order Order, read int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"offset", offset,
			"num", num,
			"order", order.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "read completed",
		"offset", offset,
		"num", num,
		"order", order.String(),
		"records", read,
	)
}

// LogReset logs a reset operation.
func (l *Logger) LogReset(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reset failed", "error", err)
		return
	}
	l.InfoContext(ctx, "database reset")
}
