// Package cache provides a string-keyed JSON blob cache with TTLs, backed by
// Redis. The accessor is deliberately best-effort: a cache outage must never
// fail a request, so every operation degrades to a miss (or a no-op) and logs
// instead of propagating the error. Callers that need durability talk to the
// repo layer, not to this package.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// HistoryKey returns the cache key holding a user's chat history.
func HistoryKey(userID string) string { return "chat_history:" + userID }

// Store is the cache contract consumed by the service layer.
//
// Get reports a hit via its boolean result; misses and backend failures are
// indistinguishable on purpose. Set and Delete are fire-and-forget.
type Store interface {
	// Get unmarshals the cached JSON blob at key into dest and reports
	// whether a value was found.
	Get(ctx context.Context, key string, dest any) bool
	// Set marshals value to JSON and stores it at key with the given TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	// Delete removes key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string)
}

// Redis is the production Store backed by a go-redis client.
type Redis struct {
	client *redis.Client
}

// NewRedis parses a redis:// URL and returns a connected Store. The client
// dials lazily; Ping is left to the caller's health checks.
func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{client: redis.NewClient(opt)}, nil
}

// Close releases the underlying client connections.
func (r *Redis) Close() error { return r.client.Close() }

// Ping verifies connectivity, for startup logs and health checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string, dest any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Error().Err(err).Str("key", key).Msg("cache get failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Error().Err(err).Str("key", key).Msg("cache entry is not valid JSON")
		return false
	}
	return true
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("cache value not serializable")
		return
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("cache delete failed")
	}
}

// Noop is the Store used when no REDIS_URL is configured. Every read is a
// miss and writes are discarded.
type Noop struct{}

// Get implements Store.
func (Noop) Get(context.Context, string, any) bool { return false }

// Set implements Store.
func (Noop) Set(context.Context, string, any, time.Duration) {}

// Delete implements Store.
func (Noop) Delete(context.Context, string) {}
