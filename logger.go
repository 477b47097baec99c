package kdgo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with kdgo-specific context.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// WithSnapshot adds a snapshot name field to the logger.
func (l *Logger) WithSnapshot(name string) *Logger {
	return &Logger{Logger: l.Logger.With("snapshot", name)}
}

// LogBuild logs a tree build.
func (l *Logger) LogBuild(ctx context.Context, count, dimension, maxDepth int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"count", count,
			"dimension", dimension,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "build completed",
		"count", count,
		"dimension", dimension,
		"max_depth", maxDepth,
		"duration", duration,
	)
}

// LogSearch logs a nearest-neighbor query.
func (l *Logger) LogSearch(ctx context.Context, duration time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "search failed", "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "duration", duration)
}

// LogSave logs a snapshot write.
func (l *Logger) LogSave(ctx context.Context, name string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot save failed",
			"snapshot", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot saved",
		"snapshot", name,
		"bytes", bytes,
	)
}

// LogLoad logs a snapshot read.
func (l *Logger) LogLoad(ctx context.Context, name string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"snapshot", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot loaded",
		"snapshot", name,
		"count", count,
	)
}

// LogPublish logs an update of the CURRENT pointer.
func (l *Logger) LogPublish(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"snapshot", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot published", "snapshot", name)
}
