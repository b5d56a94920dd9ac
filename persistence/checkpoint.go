package persistence

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/plsom/blobstore"
	"github.com/hupe1980/plsom/resource"
	"github.com/hupe1980/plsom/som"
)

// Ext is the file extension of checkpoint blobs.
const Ext = ".psom"

// Checkpointer writes periodic snapshots of a training run to a blob store.
//
// Observe and Save must be called from the goroutine that owns the map; the
// state vector is copied there and encoded and uploaded in the background
// when asynchronous checkpoints are enabled.
type Checkpointer struct {
	store    blobstore.Store
	prefix   string
	interval uint64
	keep     int
	async    bool
	rc       *resource.Controller
	logger   *slog.Logger
	metrics  MetricsObserver
	snapOpts []Option

	steps uint64

	wg  sync.WaitGroup
	mu  sync.Mutex
	err error
}

// CheckpointOption configures a Checkpointer.
type CheckpointOption func(*Checkpointer)

// WithInterval sets the number of training steps between checkpoints.
// 0 disables periodic checkpoints. Default: 1000.
func WithInterval(steps uint64) CheckpointOption {
	return func(c *Checkpointer) { c.interval = steps }
}

// WithKeep sets how many checkpoints are retained; older ones are deleted.
// 0 keeps all. Default: 3.
func WithKeep(n int) CheckpointOption {
	return func(c *Checkpointer) { c.keep = n }
}

// WithAsync uploads checkpoints on background workers bounded by the
// resource controller. When every worker is busy the checkpoint is written
// inline.
func WithAsync(async bool) CheckpointOption {
	return func(c *Checkpointer) { c.async = async }
}

// WithResourceController bounds workers, buffered bytes and upload rate.
func WithResourceController(rc *resource.Controller) CheckpointOption {
	return func(c *Checkpointer) { c.rc = rc }
}

// WithCheckpointLogger sets the logger. Default: discard.
func WithCheckpointLogger(l *slog.Logger) CheckpointOption {
	return func(c *Checkpointer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetricsObserver sets the checkpoint metrics observer.
func WithMetricsObserver(mo MetricsObserver) CheckpointOption {
	return func(c *Checkpointer) {
		if mo != nil {
			c.metrics = mo
		}
	}
}

// WithSnapshotOptions sets the encoding options of every checkpoint.
func WithSnapshotOptions(opts ...Option) CheckpointOption {
	return func(c *Checkpointer) { c.snapOpts = append(c.snapOpts, opts...) }
}

// NewCheckpointer creates a Checkpointer writing below prefix in store.
func NewCheckpointer(store blobstore.Store, prefix string, opts ...CheckpointOption) *Checkpointer {
	c := &Checkpointer{
		store:    store,
		prefix:   strings.Trim(prefix, "/"),
		interval: 1000,
		keep:     3,
		logger:   slog.New(slog.DiscardHandler),
		metrics:  NoopMetricsObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.async && c.rc == nil {
		c.rc = resource.NewController(resource.Config{})
	}
	c.logger = c.logger.With("component", "checkpointer", "prefix", c.prefix)
	return c
}

// Steps returns the number of training steps observed, including those
// recorded in a restored checkpoint.
func (c *Checkpointer) Steps() uint64 { return c.steps }

// Name returns the blob name of the checkpoint taken at step.
func (c *Checkpointer) Name(step uint64) string {
	return path.Join(c.prefix, fmt.Sprintf("%020d%s", step, Ext))
}

// Train trains m on input and checkpoints on schedule.
func (c *Checkpointer) Train(ctx context.Context, m som.Model, input []float64) error {
	if err := m.Train(input); err != nil {
		return err
	}
	return c.Observe(ctx, m)
}

// Observe counts one training step of m and writes a checkpoint every
// interval steps. Errors of earlier background checkpoints are returned here.
func (c *Checkpointer) Observe(ctx context.Context, m som.Model) error {
	c.steps++
	if c.interval == 0 || c.steps%c.interval != 0 {
		return c.takeErr()
	}

	cfg, state, step := m.Config(), m.StateVector(), c.steps
	if !c.async {
		_, err := c.write(ctx, cfg, state, step)
		return err
	}
	if !c.rc.TryAcquireBackground() {
		c.logger.Debug("background workers busy, writing checkpoint inline", "step", step)
		_, err := c.write(ctx, cfg, state, step)
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.rc.ReleaseBackground()
		if _, err := c.write(ctx, cfg, state, step); err != nil {
			c.setErr(err)
		}
	}()
	return c.takeErr()
}

// Save writes a checkpoint of m now and returns its name.
func (c *Checkpointer) Save(ctx context.Context, m som.Model) (string, error) {
	return c.write(ctx, m.Config(), m.StateVector(), c.steps)
}

// Wait blocks until all background checkpoints finished.
func (c *Checkpointer) Wait() error {
	c.wg.Wait()
	return c.takeErr()
}

// Latest returns the name of the newest checkpoint.
func (c *Checkpointer) Latest(ctx context.Context) (string, error) {
	names, err := c.list(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no checkpoint below %q: %w", c.prefix, blobstore.ErrNotFound)
	}
	return names[len(names)-1], nil
}

// Restore rebuilds the map from the newest checkpoint and continues the step
// count from there.
func (c *Checkpointer) Restore(ctx context.Context, opts ...som.Option) (som.Model, error) {
	start := time.Now()
	name, err := c.Latest(ctx)
	if err != nil {
		c.metrics.OnRestore(time.Since(start), 0, err)
		return nil, err
	}

	data, err := c.store.Get(ctx, name)
	var m som.Model
	if err == nil {
		var snap *Snapshot
		if snap, err = ReadSnapshot(resource.NewRateLimitedReader(ctx, bytes.NewReader(data), c.rc)); err == nil {
			if m, err = snap.Restore(opts...); err == nil {
				c.steps = snap.Step
			}
		}
	}
	c.metrics.OnRestore(time.Since(start), len(data), err)
	if err != nil {
		return nil, fmt.Errorf("restore checkpoint %s: %w", name, err)
	}

	c.logger.Info("checkpoint restored", "name", name, "step", c.steps, "kind", m.Kind())
	return m, nil
}

func (c *Checkpointer) write(ctx context.Context, cfg som.Config, state []float64, step uint64) (string, error) {
	start := time.Now()
	name := c.Name(step)

	// Reserve the expected encoded size before buffering.
	budget := int64(len(state))*8 + 512
	if err := c.rc.AcquireMemory(ctx, budget); err != nil {
		c.metrics.OnCheckpoint(time.Since(start), 0, err)
		return "", fmt.Errorf("checkpoint %s: %w", name, err)
	}
	defer c.rc.ReleaseMemory(budget)

	var buf bytes.Buffer
	opts := append(append([]Option(nil), c.snapOpts...), WithStep(step))
	err := WriteSnapshot(&buf, cfg, state, opts...)
	if err == nil {
		// the IO limit applies to the upload
		err = c.rc.AcquireIO(ctx, buf.Len())
	}
	if err == nil {
		err = c.store.Put(ctx, name, buf.Bytes())
	}
	c.metrics.OnCheckpoint(time.Since(start), buf.Len(), err)
	if err != nil {
		c.logger.Error("checkpoint failed", "name", name, "step", step, "error", err)
		return "", fmt.Errorf("checkpoint %s: %w", name, err)
	}
	c.logger.Info("checkpoint written", "name", name, "step", step, "bytes", buf.Len(), "duration", time.Since(start))

	if err := c.prune(ctx); err != nil {
		c.logger.Warn("checkpoint pruning failed", "error", err)
	}
	return name, nil
}

func (c *Checkpointer) list(ctx context.Context) ([]string, error) {
	prefix := c.prefix
	if prefix != "" {
		prefix += "/"
	}
	names, err := c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, Ext) && !strings.Contains(strings.TrimPrefix(n, prefix), "/") {
			out = append(out, n)
		}
	}
	return out, nil
}

// prune deletes all but the newest keep checkpoints. Names are zero-padded
// step counts, so lexical order is step order.
func (c *Checkpointer) prune(ctx context.Context) error {
	if c.keep <= 0 {
		return nil
	}
	names, err := c.list(ctx)
	if err != nil {
		return err
	}
	for len(names) > c.keep {
		if err := c.store.Delete(ctx, names[0]); err != nil {
			return err
		}
		c.logger.Debug("checkpoint pruned", "name", names[0])
		names = names[1:]
	}
	return nil
}

func (c *Checkpointer) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

func (c *Checkpointer) takeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.err
	c.err = nil
	return err
}
