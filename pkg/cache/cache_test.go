package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guildboard/guildboard/pkg/cache"
)

func TestMemory_SetGet(t *testing.T) {
	c := cache.NewMemory[string]()
	defer c.Close()

	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "v" {
		t.Errorf("Get() = %q, want %q", got, "v")
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := cache.NewMemory[int](cache.WithCleanupInterval(0))
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "k", 42, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemory_LastWriterWins(t *testing.T) {
	c := cache.NewMemory[int]()
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "k", 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", 2, time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("Get() = %d, want 2", got)
	}
}

func TestMemory_Closed(t *testing.T) {
	c := cache.NewMemory[string]()
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	// Idempotent.
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if err := c.Set(context.Background(), "k", "v", time.Minute); !errors.Is(err, cache.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestGetOrSet(t *testing.T) {
	c := cache.NewMemory[string]()
	defer c.Close()

	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, time.Duration, error) {
		calls.Add(1)
		return "fetched", time.Minute, nil
	}

	got, err := cache.GetOrSet(ctx, c, "key", fetch)
	if err != nil {
		t.Fatalf("GetOrSet() error = %v", err)
	}
	if got != "fetched" {
		t.Errorf("GetOrSet() = %q", got)
	}

	// Second call hits the cache.
	if _, err := cache.GetOrSet(ctx, c, "key", fetch); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

func TestGetOrSet_Concurrent(t *testing.T) {
	c := cache.NewMemory[string]()
	defer c.Close()

	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, time.Duration, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return "value", time.Minute, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.GetOrSet(ctx, c, "shared", fetch)
			if err != nil || v != "value" {
				t.Errorf("GetOrSet() = %q, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times under race, want 1", n)
	}
}

func TestGetOrSet_Error(t *testing.T) {
	c := cache.NewMemory[string]()
	defer c.Close()

	wantErr := errors.New("upstream down")
	_, err := cache.GetOrSet(context.Background(), c, "key", func(ctx context.Context) (string, time.Duration, error) {
		return "", 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected upstream error, got %v", err)
	}
}
