// Package logger configures the process-wide slog logger and carries
// request-scoped attributes through context.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type requestIDKey struct{}

// Setup installs the default slog logger. level is one of debug, info, warn,
// error; format is "json" or "text". Every record carries a service
// attribute so aggregated logs from co-deployed processes stay separable.
func Setup(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler).With("service", "recostats"))
}

// WithRequestID stores the request id in ctx for later retrieval by
// FromContext.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// FromContext returns the default logger, annotated with the request id when
// one is present in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	log := slog.Default()
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		log = log.With("request_id", id)
	}
	return log
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
