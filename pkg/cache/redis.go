package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a cache backed by a Redis server. Values are serialized with the
// configured Marshaler (JSON by default). Use it instead of Memory when the
// dashboard runs as several processes that must share the account cache.
type Redis[V any] struct {
	client    redis.UniversalClient
	marshaler Marshaler[V]
	prefix    string
	ttl       time.Duration
}

// RedisOption configures a Redis cache.
type RedisOption[V any] func(*Redis[V])

// WithRedisPrefix sets a key prefix, namespacing entries on a shared server.
func WithRedisPrefix[V any](prefix string) RedisOption[V] {
	return func(r *Redis[V]) {
		r.prefix = prefix
	}
}

// WithRedisDefaultTTL sets the TTL applied when Set is called with zero TTL.
func WithRedisDefaultTTL[V any](ttl time.Duration) RedisOption[V] {
	return func(r *Redis[V]) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithRedisMarshaler replaces the default JSON marshaler.
func WithRedisMarshaler[V any](m Marshaler[V]) RedisOption[V] {
	return func(r *Redis[V]) {
		if m != nil {
			r.marshaler = m
		}
	}
}

// NewRedis creates a Redis-backed cache around an existing client.
func NewRedis[V any](client redis.UniversalClient, opts ...RedisOption[V]) *Redis[V] {
	r := &Redis[V]{
		client:    client,
		marshaler: jsonMarshaler[V]{},
		ttl:       time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis[V]) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Get retrieves a value by key.
// Returns ErrNotFound if the key does not exist or has expired.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return r.marshaler.Unmarshal(data)
}

// Set stores a value with the given TTL. Zero TTL uses the default.
// Redis enforces expiry server-side, so entries disappear on schedule
// without a janitor.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.marshaler.Marshal(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

// Delete removes a key from the cache.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Close is a no-op; the underlying client is owned by the caller.
func (r *Redis[V]) Close() error {
	return nil
}

var _ Cache[any] = (*Redis[any])(nil)
