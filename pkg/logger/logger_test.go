package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/guildboard/guildboard/pkg/logger"
)

type ctxKey struct{}

func TestNew_Level(t *testing.T) {
	t.Parallel()

	log := logger.New(logger.Config{Level: "warn"})
	if log.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}
	if !log.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn should be enabled at warn level")
	}
}

func TestContextExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	log := slog.New(logger.Decorate(base, func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(ctxKey{}).(string)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("trace", v), true
	}))

	ctx := context.WithValue(context.Background(), ctxKey{}, "abc")
	log.InfoContext(ctx, "with value")
	log.InfoContext(context.Background(), "without value")

	lines := strings.TrimSpace(buf.String())
	parts := strings.Split(lines, "\n")
	if len(parts) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(parts))
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(parts[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(parts[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first["trace"] != "abc" {
		t.Fatalf("expected trace attr on first line, got %v", first)
	}
	if _, ok := second["trace"]; ok {
		t.Fatal("second line should have no trace attr")
	}
}

func TestNewDiscard(t *testing.T) {
	t.Parallel()
	if logger.NewDiscard() == nil {
		t.Fatal("NewDiscard returned nil")
	}
}
