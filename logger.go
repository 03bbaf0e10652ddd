package pqhash

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with pipeline-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithModel adds a model name field to the logger.
func (l *Logger) WithModel(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("model", name),
	}
}

// WithItem adds an item key field to the logger.
func (l *Logger) WithItem(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// WithIndex adds a search index name field to the logger.
func (l *Logger) WithIndex(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("index", name),
	}
}

// WithPipeline adds a pipeline name field to the logger.
func (l *Logger) WithPipeline(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("pipeline", name),
	}
}

// LogItem logs the outcome of one item.
func (l *Logger) LogItem(ctx context.Context, o Outcome) {
	switch o.Status {
	case StatusFailed:
		l.ErrorContext(ctx, "item failed",
			"key", o.Key,
			"error", o.Err,
		)
	case StatusSkipped:
		l.DebugContext(ctx, "item skipped",
			"key", o.Key,
		)
	default:
		l.DebugContext(ctx, "item processed",
			"key", o.Key,
		)
	}
}

// LogRun logs the summary of a pipeline run.
func (l *Logger) LogRun(ctx context.Context, r *Report, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "run aborted",
			"total", r.Total,
			"processed", r.Processed,
			"skipped", r.Skipped,
			"failed", r.Failed,
			"error", err,
		)
	case r.Failed > 0:
		l.WarnContext(ctx, "run completed with failures",
			"total", r.Total,
			"processed", r.Processed,
			"skipped", r.Skipped,
			"failed", r.Failed,
			"duration", r.Duration,
		)
	default:
		l.InfoContext(ctx, "run completed",
			"total", r.Total,
			"processed", r.Processed,
			"skipped", r.Skipped,
			"duration", r.Duration,
		)
	}
}

// LogFit logs a model training operation.
func (l *Logger) LogFit(ctx context.Context, vectors, groups, clusters int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fit failed",
			"vectors", vectors,
			"groups", groups,
			"clusters", clusters,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "fit completed",
			"vectors", vectors,
			"groups", groups,
			"clusters", clusters,
			"duration", duration,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, size, hits int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"size", size,
			"hits", hits,
		)
	}
}
