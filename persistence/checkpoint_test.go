package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plsom/blobstore"
	"github.com/hupe1980/plsom/resource"
	"github.com/hupe1980/plsom/som"
	"github.com/hupe1980/plsom/testutil"
)

type recordingMetrics struct {
	mu          sync.Mutex
	checkpoints int
	failures    int
	restores    int
}

func (r *recordingMetrics) OnCheckpoint(_ time.Duration, _ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkpoints++
	if err != nil {
		r.failures++
	}
}

func (r *recordingMetrics) OnRestore(time.Duration, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restores++
}

type failingStore struct {
	*blobstore.MemoryStore
}

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type countingStore struct {
	*blobstore.MemoryStore
	puts int
}

func (s *countingStore) Put(ctx context.Context, name string, data []byte) error {
	s.puts++
	return s.MemoryStore.Put(ctx, name, data)
}

func train(t *testing.T, cp *Checkpointer, m som.Model, steps int) {
	t.Helper()
	rng := testutil.NewRNG(3)
	in := make([]float64, m.InputDimension())
	for i := 0; i < steps; i++ {
		rng.FillUniformRange(in, 0, 1)
		require.NoError(t, cp.Train(context.Background(), m, in))
	}
}

func TestCheckpointer_IntervalAndRetention(t *testing.T) {
	store := blobstore.NewMemoryStore()
	metrics := &recordingMetrics{}
	cp := NewCheckpointer(store, "run-1", WithInterval(10), WithKeep(2), WithMetricsObserver(metrics))

	m, err := som.NewPLSOM2(2, []int{4, 4}, 4, som.WithSeed(1))
	require.NoError(t, err)
	train(t, cp, m, 45)

	assert.Equal(t, uint64(45), cp.Steps())
	assert.Equal(t, 4, metrics.checkpoints)

	names, err := store.List(context.Background(), "run-1/")
	require.NoError(t, err)
	assert.Equal(t, []string{cp.Name(30), cp.Name(40)}, names)

	latest, err := cp.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1/00000000000000000040.psom", latest)
}

func TestCheckpointer_Restore(t *testing.T) {
	store := blobstore.NewMemoryStore()
	cp := NewCheckpointer(store, "run", WithInterval(25), WithKeep(0))

	m, err := som.NewPLSOM2(2, []int{4, 4}, 4, som.WithSeed(1))
	require.NoError(t, err)
	train(t, cp, m, 50)

	metrics := &recordingMetrics{}
	resumed := NewCheckpointer(store, "run", WithInterval(25), WithMetricsObserver(metrics))
	restored, err := resumed.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(50), resumed.Steps())
	assert.Equal(t, m.StateVector(), restored.StateVector())
	assert.Equal(t, 1, metrics.restores)

	_, err = NewCheckpointer(store, "other").Restore(context.Background())
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCheckpointer_Async(t *testing.T) {
	store := blobstore.NewMemoryStore()
	rc := resource.NewController(resource.Config{MaxBackgroundWorkers: 2, MemoryLimitBytes: 1 << 20})
	cp := NewCheckpointer(store, "async", WithInterval(5), WithKeep(0), WithAsync(true), WithResourceController(rc),
		WithSnapshotOptions(WithCompression(CompressionZSTD)))

	m, err := som.NewPLSOM(2, []int{3, 3}, 3, som.WithSeed(5))
	require.NoError(t, err)
	train(t, cp, m, 20)
	require.NoError(t, cp.Wait())

	names, err := store.List(context.Background(), "async/")
	require.NoError(t, err)
	assert.Len(t, names, 4)
	assert.Equal(t, int64(0), rc.MemoryUsage())

	data, err := store.Get(context.Background(), names[3])
	require.NoError(t, err)
	snap, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), snap.Step)
}

func TestCheckpointer_Errors(t *testing.T) {
	metrics := &recordingMetrics{}
	cp := NewCheckpointer(failingStore{blobstore.NewMemoryStore()}, "x", WithInterval(1), WithMetricsObserver(metrics))

	m, err := som.NewPLSOM2(2, []int{2, 2}, 2, som.WithSeed(1))
	require.NoError(t, err)

	err = cp.Train(context.Background(), m, []float64{0.1, 0.2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, metrics.failures)

	// Train errors are returned before any checkpoint
	err = cp.Train(context.Background(), m, []float64{0.1})
	var dm *som.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func TestSaveLoad(t *testing.T) {
	store := blobstore.NewMemoryStore()
	m := trainedPLSOM2(t, 50)

	require.NoError(t, Save(context.Background(), store, "maps/a.psom", m))
	loaded, err := Load(context.Background(), store, "maps/a.psom")
	require.NoError(t, err)
	assert.Equal(t, m.StateVector(), loaded.StateVector())

	_, err = Load(context.Background(), store, "maps/missing.psom")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCheckpointer_IOLimitThrottlesUpload(t *testing.T) {
	m, err := som.NewPLSOM2(2, []int{3, 3}, 3, som.WithSeed(2))
	require.NoError(t, err)

	store := &countingStore{MemoryStore: blobstore.NewMemoryStore()}
	slow := resource.NewController(resource.Config{IOLimitBytesPerSec: 1})
	cp := NewCheckpointer(store, "io", WithResourceController(slow))

	// one byte per second cannot upload the snapshot before the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = cp.Save(ctx, m)
	require.Error(t, err)
	assert.Zero(t, store.puts)
	assert.Zero(t, store.Len())

	fast := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	cp = NewCheckpointer(store, "io", WithResourceController(fast))
	name, err := cp.Save(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, store.puts)

	data, err := store.Get(context.Background(), name)
	require.NoError(t, err)
	_, err = Read(data)
	require.NoError(t, err)
}
