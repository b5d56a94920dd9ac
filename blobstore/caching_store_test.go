package blobstore

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*MemoryStore
	gets atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, name string) ([]byte, error) {
	c.gets.Add(1)
	return c.MemoryStore.Get(ctx, name)
}

func TestCachingStore_ReadThrough(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	ctx := context.Background()
	require.NoError(t, inner.Put(ctx, "a", []byte("alpha")))

	store := NewCachingStore(inner, 1024)

	for i := 0; i < 3; i++ {
		got, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(got))
	}
	assert.Equal(t, int64(1), inner.gets.Load())

	hits, misses, size := store.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(5), size)
}

func TestCachingStore_Invalidate(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	ctx := context.Background()
	store := NewCachingStore(inner, 1024)

	require.NoError(t, store.Put(ctx, "a", []byte("v1")))
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "a", []byte("v2")))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachingStore_Eviction(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, inner.Put(ctx, fmt.Sprintf("b%d", i), make([]byte, 10)))
	}
	require.NoError(t, inner.Put(ctx, "huge", make([]byte, 100)))

	store := NewCachingStore(inner, 30)
	for i := 0; i < 4; i++ {
		_, err := store.Get(ctx, fmt.Sprintf("b%d", i))
		require.NoError(t, err)
	}
	_, _, size := store.Stats()
	assert.Equal(t, int64(30), size)

	// b0 was least recently used
	before := inner.gets.Load()
	_, err := store.Get(ctx, "b0")
	require.NoError(t, err)
	assert.Equal(t, before+1, inner.gets.Load())

	// Oversized blobs bypass the cache
	_, err = store.Get(ctx, "huge")
	require.NoError(t, err)
	_, _, size = store.Stats()
	assert.LessOrEqual(t, size, int64(30))
}

func TestCachingStore_Prefetch(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	ctx := context.Background()
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("snap/%02d", i)
		require.NoError(t, inner.Put(ctx, names[i], []byte{byte(i)}))
	}

	store := NewCachingStore(inner, 0)
	require.NoError(t, store.Prefetch(ctx, names...))
	assert.Equal(t, int64(20), inner.gets.Load())

	for _, name := range names {
		_, err := store.Get(ctx, name)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(20), inner.gets.Load())

	err := store.Prefetch(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	listed, err := store.List(ctx, "snap/")
	require.NoError(t, err)
	assert.Equal(t, names, listed)
}
