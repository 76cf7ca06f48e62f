package patients

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	dir, _ := Merge([]SourceTable{registeredSource()}, nil)
	require.NoError(t, cache.Set(ctx, "clinic-a", dir))

	got, err := cache.Get(ctx, "clinic-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, dir.All(), got.All())

	id, err := got.LookupByName("Durand Alice")
	require.NoError(t, err)
	assert.Equal(t, "P1", id, "indices rebuilt from cached identities")
}

func TestCacheMiss(t *testing.T) {
	cache := newTestCache(t)
	got, err := cache.Get(context.Background(), "clinic-missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheInvalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	dir, _ := Merge([]SourceTable{registeredSource()}, nil)
	require.NoError(t, cache.Set(ctx, "clinic-a", dir))
	require.NoError(t, cache.Invalidate(ctx, "clinic-a"))

	got, err := cache.Get(ctx, "clinic-a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCachePartitionIsolation(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	dir, _ := Merge([]SourceTable{registeredSource()}, nil)
	require.NoError(t, cache.Set(ctx, "clinic-a", dir))

	got, err := cache.Get(ctx, "clinic-b")
	require.NoError(t, err)
	assert.Nil(t, got, "one clinic's directory never leaks into another's")
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	got, err := cache.Get(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, cache.Set(ctx, "x", NewDirectory(nil)))
	require.NoError(t, cache.Invalidate(ctx, "x"))
}
