package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryGetBeforeExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "hello", time.Minute))

	var got string
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", got)
}

func TestMemoryExpiredEntryIsNeverReturned(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", 42, 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	var got int
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok, "expired entry must read as a miss")
	// Lazy eviction on read removes the entry.
	require.Equal(t, 0, m.Len())
}

func TestMemoryOverwriteRefreshesTTL(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "old", 10*time.Millisecond))
	require.NoError(t, m.Set(ctx, "k", "new", time.Minute))
	time.Sleep(25 * time.Millisecond)

	var got string
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "new", got)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, m.Delete(ctx, "k"))

	var got string
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemorySweepRemovesExpired(t *testing.T) {
	m := NewMemory(20 * time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", 1, 5*time.Millisecond))
	require.NoError(t, m.Set(ctx, "b", 2, time.Minute))

	require.Eventually(t, func() bool { return m.Len() == 1 },
		time.Second, 10*time.Millisecond, "sweep should drop the expired entry")
}

func TestMemoryStructRoundTrip(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "p", payload{Name: "x", Count: 3}, time.Minute))

	var got payload
	ok, err := m.Get(ctx, "p", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestMemorySizeBound(t *testing.T) {
	m := NewMemorySized(time.Minute, 3)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, m.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, m.Set(ctx, "c", 3, time.Minute))
	require.NoError(t, m.Set(ctx, "d", 4, time.Minute))

	require.Equal(t, 3, m.Len(), "entry count must never exceed the cap")

	var got int
	ok, err := m.Get(ctx, "d", &got)
	require.NoError(t, err)
	require.True(t, ok, "the newest write must survive eviction")
	require.Equal(t, 4, got)
}

func TestMemorySizeBoundEvictsExpiredFirst(t *testing.T) {
	m := NewMemorySized(time.Minute, 3)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "stale1", 1, 5*time.Millisecond))
	require.NoError(t, m.Set(ctx, "stale2", 2, 5*time.Millisecond))
	require.NoError(t, m.Set(ctx, "live", 3, time.Minute))
	time.Sleep(15 * time.Millisecond)

	require.NoError(t, m.Set(ctx, "new", 4, time.Minute))

	var got int
	ok, err := m.Get(ctx, "live", &got)
	require.NoError(t, err)
	require.True(t, ok, "live entries survive while expired ones exist to evict")
	require.Equal(t, 3, got)

	ok, err = m.Get(ctx, "new", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, got)
}

func TestKey(t *testing.T) {
	require.Equal(t, "catalog:movie:page:1", Key("catalog", "movie", "page", "1"))
}
