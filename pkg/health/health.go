// Package health aggregates readiness probes. Wire the database and
// Redis healthcheck closures in and mount Run's report on a route.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout = 5 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc matches the healthcheck closures exposed by the db and
// redis packages.
type CheckFunc func(ctx context.Context) error

// Checks maps probe names to their check functions.
type Checks map[string]CheckFunc

// Report is the aggregate probe outcome, shaped for a JSON response.
type Report struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// Check is a single probe outcome.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Healthy reports whether every probe passed.
func (r *Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Run executes all checks in parallel under a shared timeout and
// aggregates the results. A failing probe marks the whole report
// unhealthy but never aborts the other probes.
func Run(ctx context.Context, checks Checks) *Report {
	report := &Report{Status: StatusHealthy}
	if len(checks) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu sync.Mutex
	report.Checks = make(map[string]Check, len(checks))

	g, ctx := errgroup.WithContext(ctx)
	for name, check := range checks {
		g.Go(func() error {
			out := Check{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				out = Check{Status: StatusUnhealthy, Error: err.Error()}
			}
			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = out
			if out.Status == StatusUnhealthy {
				report.Status = StatusUnhealthy
			}
			return nil
		})
	}
	_ = g.Wait()

	return report
}
