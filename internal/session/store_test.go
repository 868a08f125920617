package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	ctx := context.Background()

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got, "missing session yields empty token")

	require.NoError(t, store.Put(ctx, "s1", "tok-1"))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, store.Delete(ctx, "s1"))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStoreExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Second)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", "tok-1"))
	mr.FastForward(2 * time.Second)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got, "expired session yields empty token")
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Put(ctx, "s1", "tok-1"))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, store.Delete(ctx, "s1"))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", "tok-1"))
	store.mu.Lock()
	entry := store.entries["s1"]
	entry.expiresAt = time.Now().Add(-time.Second)
	store.entries["s1"] = entry
	store.mu.Unlock()

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
