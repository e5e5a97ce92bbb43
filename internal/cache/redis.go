package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key written by iptvbrowser.
const KeyPrefix = "iptvbrowser:"

// Redis wraps a go-redis client. Every helper prefixes keys with KeyPrefix.
type Redis struct {
	client *redis.Client
}

// New parses a Redis URL (e.g. "redis://host:6379/0") and returns a
// client. Call Ping to verify the connection.
func New(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

// Ping checks the connection to Redis.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// IsMiss reports whether err means the key does not exist.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// --- raw helpers ---

// GetBytes returns the raw value stored under key.
// Returns redis.Nil when the key does not exist.
func GetBytes(ctx context.Context, r *Redis, key string) ([]byte, error) {
	return r.client.Get(ctx, KeyPrefix+key).Bytes()
}

// SetBytes stores value under key. A zero ttl means no expiry.
func SetBytes(ctx context.Context, r *Redis, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, KeyPrefix+key, value, ttl).Err()
}

// Del deletes one or more exact keys.
func Del(ctx context.Context, r *Redis, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = KeyPrefix + k
	}
	return r.client.Del(ctx, full...).Err()
}
