package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedis(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisRoundTrip(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", map[string]int{"n": 7}, time.Minute))

	var got map[string]int
	ok, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 7, got["n"])
}

func TestRedisMiss(t *testing.T) {
	store, _ := newTestRedis(t)

	var got string
	ok, err := store.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisTTLExpiry(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	var got string
	ok, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok, "entry must expire with its TTL")
}

func TestRedisDelete(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	var got string
	ok, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisServerGoneDegradesToError(t *testing.T) {
	store, mr := newTestRedis(t)
	mr.Close()

	var got string
	_, err := store.Get(context.Background(), "k", &got)
	require.Error(t, err, "callers treat store errors as a cache miss")
}

func TestNewRedisUnreachable(t *testing.T) {
	_, err := NewRedis("127.0.0.1:1", "", 0)
	require.Error(t, err)
}
