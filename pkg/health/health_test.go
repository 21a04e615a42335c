package health_test

import (
	"context"
	"errors"
	"testing"

	"github.com/guildboard/guildboard/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()
		report := health.Run(ctx, nil)
		if !report.Healthy() {
			t.Fatalf("expected healthy, got %q", report.Status)
		}
	})

	t.Run("all passing", func(t *testing.T) {
		t.Parallel()
		report := health.Run(ctx, health.Checks{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return nil },
		})
		if !report.Healthy() {
			t.Fatalf("expected healthy, got %q", report.Status)
		}
		if len(report.Checks) != 2 {
			t.Fatalf("expected 2 check results, got %d", len(report.Checks))
		}
	})

	t.Run("one failing marks the report unhealthy", func(t *testing.T) {
		t.Parallel()
		report := health.Run(ctx, health.Checks{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		if report.Healthy() {
			t.Fatal("expected unhealthy report")
		}
		check := report.Checks["redis"]
		if check.Status != health.StatusUnhealthy || check.Error == "" {
			t.Fatalf("unexpected check result: %+v", check)
		}
		if report.Checks["postgres"].Status != health.StatusHealthy {
			t.Fatal("passing probe should stay healthy")
		}
	})
}
