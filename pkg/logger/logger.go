// Package logger builds the application's slog loggers: JSON to stdout,
// optionally mirrored to Sentry, with per-request context attributes
// injected by extractors.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls the stdout logger.
type Config struct {
	// Level is the minimum level, one of debug, info, warn, error.
	Level string `koanf:"level"`
}

// ContextExtractor pulls an attribute out of the request context at log
// time. Extractors run per record so request-scoped values stay fresh.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// New creates a JSON logger writing to stdout.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	return slog.New(Decorate(h, extractors...))
}

// NewDiscard creates a logger that drops everything. Used as the default
// when no logger is configured.
func NewDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
