package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	data := []byte("plsom snapshot payload")
	require.NoError(t, store.Put(ctx, "maps/a.psom", data))

	// Verify file exists on disk
	_, err := os.Stat(filepath.Join(tmpDir, "maps", "a.psom"))
	require.NoError(t, err)

	got, err := store.Get(ctx, "maps/a.psom")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Overwrite
	require.NoError(t, store.Put(ctx, "maps/a.psom", []byte("v2")))
	got, err = store.Get(ctx, "maps/a.psom")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, store.Delete(ctx, "maps/a.psom"))
	_, err = store.Get(ctx, "maps/a.psom")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine
	require.NoError(t, store.Delete(ctx, "maps/a.psom"))
}

func TestLocalStore_List(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"run1/00002", "run1/00001", "run2/00001", "other"} {
		require.NoError(t, store.Put(ctx, name, []byte(name)))
	}

	names, err := store.List(ctx, "run1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run1/00001", "run1/00002"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_InvalidNames(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "a/../../b", "."} {
		err := store.Put(ctx, name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLocalStore_NoTempFilesLeft(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, "hot", []byte("payload")))
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hot", entries[0].Name())
}

func TestCleanName(t *testing.T) {
	name, err := CleanName("/a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", name)

	name, err = CleanName(`a\b`)
	require.NoError(t, err)
	assert.Equal(t, "a/b", name)

	_, err = CleanName("a//b")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte{1, 2, 3}
	require.NoError(t, store.Put(ctx, "x", data))
	data[0] = 9

	got, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got, "stored copy must not alias caller buffer")

	got[1] = 9
	again, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again)

	require.NoError(t, store.Put(ctx, "y", nil))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, names)
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Delete(ctx, "x"))
	_, err = store.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Put(ctx, "", nil), ErrInvalidName)
}
