package plsom

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with plsom-specific context.
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

// WithKind adds the map variant to the logger.
func (l *Logger) WithKind(kind string) *Logger {
	return &Logger{
		Logger: l.Logger.With("kind", kind),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithNodes adds the lattice node count to the logger.
func (l *Logger) WithNodes(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("nodes", n),
	}
}

// LogBuild logs the construction of a map.
func (l *Logger) LogBuild(ctx context.Context, cfg Config, err error) {
	if err != nil {
		l.ErrorContext(ctx, "map construction failed",
			"kind", cfg.Kind,
			"input_dim", cfg.InputDim,
			"output_dims", cfg.OutputDims,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "map constructed",
		"kind", cfg.Kind,
		"input_dim", cfg.InputDim,
		"output_dims", cfg.OutputDims,
		"seed", cfg.Seed,
	)
}

// LogSave logs a snapshot write.
func (l *Logger) LogSave(ctx context.Context, name string, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot save failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot saved",
		"name", name,
		"duration", duration,
	)
}

// LogLoad logs a snapshot read.
func (l *Logger) LogLoad(ctx context.Context, name string, kind string, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot loaded",
		"name", name,
		"kind", kind,
		"duration", duration,
	)
}
