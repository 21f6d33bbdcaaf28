// Package logging wraps log/slog with component-scoped context loggers.
// Commands initialize the level once; everything else logs through the
// context so library code never touches global state directly.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey struct{}

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init configures the package logger. level is one of debug, info, warn,
// error (defaulting to info); the RECLAIM_LOG_LEVEL environment variable
// overrides it.
func Init(level string, w io.Writer) {
	if env := os.Getenv("RECLAIM_LOG_LEVEL"); env != "" {
		level = env
	}
	if w == nil {
		w = os.Stderr
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a context whose log records carry a component attr.
func WithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, contextKey{}, logger.With(slog.String("component", name)))
}

func from(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return logger
}

// Debug logs at debug level using the context's component logger.
func Debug(ctx context.Context, msg string, args ...any) {
	from(ctx).DebugContext(ctx, msg, args...)
}

// Info logs at info level using the context's component logger.
func Info(ctx context.Context, msg string, args ...any) {
	from(ctx).InfoContext(ctx, msg, args...)
}

// Warn logs at warn level using the context's component logger.
func Warn(ctx context.Context, msg string, args ...any) {
	from(ctx).WarnContext(ctx, msg, args...)
}

// Error logs at error level using the context's component logger.
func Error(ctx context.Context, msg string, args ...any) {
	from(ctx).ErrorContext(ctx, msg, args...)
}
