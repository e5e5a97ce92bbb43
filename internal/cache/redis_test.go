package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	r, err := New(url)
	require.NoError(t, err)
	require.NoError(t, r.Ping(context.Background()))
	t.Cleanup(func() {
		_ = Del(context.Background(), r, "test:bytes", "lock:test:lock")
		_ = r.Close()
	})
	return r
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New("not a url")
	require.Error(t, err)
}

func TestBytesRoundTrip(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	_, err := GetBytes(ctx, r, "test:bytes")
	require.True(t, IsMiss(err))

	require.NoError(t, SetBytes(ctx, r, "test:bytes", []byte(`["a","b"]`), time.Minute))
	v, err := GetBytes(ctx, r, "test:bytes")
	require.NoError(t, err)
	require.JSONEq(t, `["a","b"]`, string(v))

	require.NoError(t, Del(ctx, r, "test:bytes"))
	_, err = GetBytes(ctx, r, "test:bytes")
	require.True(t, IsMiss(err))
}

func TestTryLock(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	unlock, err := TryLock(ctx, r, "test:lock", time.Minute)
	require.NoError(t, err)

	_, err = TryLock(ctx, r, "test:lock", time.Minute)
	require.ErrorIs(t, err, ErrLocked)

	_, err = Lock(ctx, r, "test:lock", time.Minute, 30*time.Millisecond, 10*time.Millisecond)
	require.ErrorIs(t, err, ErrLocked)

	unlock()
	unlock2, err := Lock(ctx, r, "test:lock", time.Minute, time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	unlock2()
}
