// Package logging provides structured logging configuration using log/slog.
//
// Log entries are correlated two ways. When the pipelines run inside a chi
// service, the chi RequestID stored in the context is attached as
// request_id. Every traversal started by the CLI or the service carries a
// traversal_id, so all diagnostics of one stream (skipped records, release
// failures) can be grouped.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const ctxKeyTraversalID contextKey = "traversal_id"

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Logs go to stderr so that stream output on stdout stays machine readable.
func Setup(level, format string) {
	slog.SetDefault(New(level, format))
}

// New builds a logger without installing it.
func New(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
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

// WithTraversalID returns a context carrying id as the traversal ID.
func WithTraversalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyTraversalID, id)
}

// NewTraversal returns a context carrying a fresh random traversal ID.
func NewTraversal(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithTraversalID(ctx, id), id
}

// TraversalID extracts the traversal ID from ctx, or "".
func TraversalID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTraversalID).(string); ok {
		return v
	}
	return ""
}

// FromContext returns the default logger enriched with the request and
// traversal IDs found in ctx.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Warn("record skipped", "error", err)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if id := TraversalID(ctx); id != "" {
		logger = logger.With("traversal_id", id)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
//	pageLogger := logging.WithFields(ctx, "stream", "pages", "page_size", size)
//	pageLogger.Debug("page fetched", "offset", offset)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
