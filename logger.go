package nodefinder

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/nodefinder/search"
)

// Logger wraps slog.Logger with nodefinder-specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRun adds a run identifier to every record.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", id),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogSearch logs the end of a search run.
func (l *Logger) LogSearch(ctx context.Context, report search.Report, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"stop_reason", report.StopReason.String(),
			"simplices", report.Simplices,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "search completed",
		"stop_reason", report.StopReason.String(),
		"simplices", report.Simplices,
		"refined", report.Refined,
		"minimizations", report.Minimizations,
		"accepted", report.Accepted,
		"duration", report.Duration,
	)
}

// LogCheckpoint logs a snapshot write or read.
func (l *Logger) LogCheckpoint(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "checkpoint saved",
		"name", name,
	)
}

// LogIdentify logs an identification run.
func (l *Logger) LogIdentify(ctx context.Context, clusters int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "identification failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "identification completed",
		"clusters", clusters,
	)
}
