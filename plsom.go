package plsom

import (
	"context"
	"time"

	"github.com/hupe1980/plsom/blobstore"
	"github.com/hupe1980/plsom/persistence"
	"github.com/hupe1980/plsom/som"
)

// Model is a trainable self-organizing map of any registered kind.
type Model = som.Model

// Config records the constructor parameters of a map.
type Config = som.Config

// Checkpointer writes periodic snapshots of a training run to a blob store.
type Checkpointer = persistence.Checkpointer

// Kinds returns the variant discriminators New and Load understand, sorted.
func Kinds() []string {
	return persistence.Kinds()
}

// New constructs a fresh map of the kind recorded in cfg.
func New(cfg Config, opts ...Option) (Model, error) {
	o := applyOptions(opts)
	m, err := persistence.New(cfg, o.mapOptions()...)
	o.logger.LogBuild(context.Background(), cfg, err)
	if err != nil {
		return nil, translateError(err)
	}
	return m, nil
}

// Save writes a snapshot of m to store under name.
func Save(ctx context.Context, store blobstore.Store, name string, m Model, opts ...Option) error {
	o := applyOptions(opts)
	start := time.Now()
	err := persistence.Save(ctx, store, name, m, o.snapshotOptions()...)
	o.logger.LogSave(ctx, name, time.Since(start), err)
	return translateError(err)
}

// Load reads the snapshot name from store and rebuilds the map it was taken
// from. The restored map continues exactly where the saved one stopped.
func Load(ctx context.Context, store blobstore.Store, name string, opts ...Option) (Model, error) {
	o := applyOptions(opts)
	start := time.Now()
	m, err := persistence.Load(ctx, store, name, o.mapOptions()...)
	if err != nil {
		o.logger.LogLoad(ctx, name, "", time.Since(start), err)
		return nil, translateError(err)
	}
	o.logger.LogLoad(ctx, name, m.Kind(), time.Since(start), nil)
	return m, nil
}

// NewCheckpointer creates a Checkpointer writing below prefix in store.
//
// Example:
//
//	cp := plsom.NewCheckpointer(store, "runs/2d", plsom.WithCheckpointInterval(500))
//	for _, x := range samples {
//	    if err := cp.Train(ctx, m, x); err != nil {
//	        return err
//	    }
//	}
//	if err := cp.Wait(); err != nil {
//	    return err
//	}
func NewCheckpointer(store blobstore.Store, prefix string, opts ...Option) *Checkpointer {
	o := applyOptions(opts)
	return persistence.NewCheckpointer(store, prefix, o.checkpointOptions()...)
}

// Resume rebuilds the map from the newest checkpoint below prefix and returns
// it together with a Checkpointer that continues the step count.
func Resume(ctx context.Context, store blobstore.Store, prefix string, opts ...Option) (Model, *Checkpointer, error) {
	o := applyOptions(opts)
	cp := persistence.NewCheckpointer(store, prefix, o.checkpointOptions()...)
	m, err := cp.Restore(ctx, o.mapOptions()...)
	if err != nil {
		return nil, nil, translateError(err)
	}
	return m, cp, nil
}
