package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type scriptKey string

type parsed struct {
	Name  string
	Steps int
}

func TestInMemoryCacheManager_SetGet(t *testing.T) {
	cache := NewInMemoryCacheManager[scriptKey, *parsed]("scripts", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	require.False(t, ok)

	want := &parsed{Name: "move", Steps: 3}
	cache.Set(ctx, "a.yaml@1", want, 0)

	got, ok := cache.Get(ctx, "a.yaml@1")
	require.True(t, ok)
	require.Same(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, int]("short", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	cache.Set(ctx, "k", 1, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := cache.Get(ctx, "k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := NewInMemoryCacheManager[string, int]("refresh", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	_, ok := cache.GetWithRefresh(ctx, "k", time.Minute)
	require.False(t, ok)

	cache.Set(ctx, "k", 7, 50*time.Millisecond)
	v, ok := cache.GetWithRefresh(ctx, "k", time.Hour)
	require.True(t, ok)
	require.Equal(t, 7, v)

	time.Sleep(80 * time.Millisecond)
	v, ok = cache.Get(ctx, "k")
	require.True(t, ok, "refresh extended the ttl")
	require.Equal(t, 7, v)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("del", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()
	cache.Set(ctx, "a", "1", 0)
	cache.Set(ctx, "b", "2", 0)
	cache.Set(ctx, "c", "3", 0)

	require.NoError(t, cache.Delete(ctx))
	require.NoError(t, cache.Delete(ctx, "a", "b"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "c")
	require.True(t, ok)

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Len())
}
