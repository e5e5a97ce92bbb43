package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/iptvbrowser/internal/cache"
)

const ttlEntry = 5 * time.Minute

// CachedStore wraps a KeyValue with a Redis read-through cache.
// Reads are served from cache when possible; writes go to the inner store
// and then refresh the cached copy.
type CachedStore struct {
	inner KeyValue
	cache *cache.Redis
	log   logrus.FieldLogger
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner KeyValue, c *cache.Redis, log logrus.FieldLogger) *CachedStore {
	return &CachedStore{inner: inner, cache: c, log: log}
}

func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	ck := cacheKey(key)
	if v, err := cache.GetBytes(ctx, c.cache, ck); err == nil {
		return v, nil
	}
	v, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := cache.SetBytes(ctx, c.cache, ck, v, ttlEntry); err != nil {
		c.log.WithError(err).WithField("key", ck).Warn("cache: set failed")
	}
	return v, nil
}

func (c *CachedStore) Put(ctx context.Context, key string, value []byte) error {
	if err := c.inner.Put(ctx, key, value); err != nil {
		return err
	}
	if err := cache.SetBytes(ctx, c.cache, cacheKey(key), value, ttlEntry); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache: refresh failed")
		c.invalidate(ctx, key)
	}
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	if err := c.inner.Delete(ctx, key); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.inner.Ping(ctx); err != nil {
		return err
	}
	return c.cache.Ping(ctx)
}

// invalidate deletes the cached copy of key, logging any error.
func (c *CachedStore) invalidate(ctx context.Context, key string) {
	if err := cache.Del(ctx, c.cache, cacheKey(key)); err != nil && !cache.IsMiss(err) {
		c.log.WithError(err).WithField("key", key).Warn("cache: del failed")
	}
}

func cacheKey(key string) string { return "cache:kv:" + key }
