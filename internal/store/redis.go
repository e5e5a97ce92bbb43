package store

import (
	"context"
	"fmt"

	"github.com/voyagen/iptvbrowser/internal/cache"
)

// RedisKV implements KeyValue with Redis as the primary store. Keys never
// expire.
type RedisKV struct {
	cache *cache.Redis
}

// NewRedisKV returns a store backed by r.
func NewRedisKV(r *cache.Redis) *RedisKV {
	return &RedisKV{cache: r}
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := cache.GetBytes(ctx, s.cache, kvKey(key))
	if cache.IsMiss(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisKV) Put(ctx context.Context, key string, value []byte) error {
	if err := cache.SetBytes(ctx, s.cache, kvKey(key), value, 0); err != nil {
		return fmt.Errorf("Put %s: %w", key, err)
	}
	return nil
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	if err := cache.Del(ctx, s.cache, kvKey(key)); err != nil {
		return fmt.Errorf("Delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisKV) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func kvKey(key string) string { return "kv:" + key }
