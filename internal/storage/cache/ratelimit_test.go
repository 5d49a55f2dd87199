package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, window time.Duration) (*RateLimitStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRateLimitStore(NewRedisFromClient(rdb), window), mr
}

func TestRateLimit_FreshTokenCanSend(t *testing.T) {
	store, _ := newTestStore(t, 2*time.Second)

	ok, err := store.CanSend(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := store.UnsentCount(context.Background(), "T1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRateLimit_WindowBlocksThenReopens(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 2*time.Second)

	base := time.UnixMilli(1700000000000)
	store.now = func() time.Time { return base }
	require.NoError(t, store.MarkSent(ctx, "T1"))

	store.now = func() time.Time { return base.Add(500 * time.Millisecond) }
	ok, err := store.CanSend(ctx, "T1")
	require.NoError(t, err)
	assert.False(t, ok, "inside the window")

	store.now = func() time.Time { return base.Add(2 * time.Second) }
	ok, err = store.CanSend(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, ok, "window elapsed exactly")
}

func TestRateLimit_LastSentExpiresWithWindow(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, 2*time.Second)

	require.NoError(t, store.MarkSent(ctx, "T1"))
	mr.FastForward(3 * time.Second)

	ok, err := store.CanSend(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, ok, "key expired, token treated as fresh")
}

func TestRateLimit_UnsentCounterLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 2*time.Second)

	require.NoError(t, store.IncrementUnsent(ctx, "T1"))
	require.NoError(t, store.IncrementUnsent(ctx, "T1"))
	require.NoError(t, store.IncrementUnsent(ctx, "T1"))

	count, err := store.UnsentCount(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, store.ResetUnsent(ctx, "T1"))
	count, err = store.UnsentCount(ctx, "T1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRateLimit_CountersAreScopedPerToken(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 2*time.Second)

	require.NoError(t, store.IncrementUnsent(ctx, "T1"))

	count, err := store.UnsentCount(ctx, "T2")
	require.NoError(t, err)
	assert.Zero(t, count)
}
