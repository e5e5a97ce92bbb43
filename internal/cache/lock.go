package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock is already held")

const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`

// TryLock attempts to acquire a distributed lock identified by key.
// It uses the Redis SET NX EX pattern. On success it returns an unlock
// function that MUST be called (typically via defer) to release the lock.
// If the lock is already held, ErrLocked is returned.
func TryLock(ctx context.Context, r *Redis, key string, ttl time.Duration) (unlock func(), err error) {
	// Random token ensures only the holder can release the lock.
	token := randomToken()
	full := KeyPrefix + "lock:" + key

	ok, err := r.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// Background context so unlock works even if the request context is cancelled.
		_ = r.client.Eval(context.Background(), unlockScript, []string{full}, token).Err()
	}, nil
}

// Lock retries TryLock every interval until it succeeds, ctx ends, or wait
// has elapsed. On timeout it returns ErrLocked.
func Lock(ctx context.Context, r *Redis, key string, ttl, wait, interval time.Duration) (func(), error) {
	deadline := time.Now().Add(wait)
	for {
		unlock, err := TryLock(ctx, r, key, ttl)
		if !errors.Is(err, ErrLocked) {
			return unlock, err
		}
		if time.Now().After(deadline) {
			return nil, ErrLocked
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
