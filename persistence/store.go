package persistence

import (
	"context"
	"fmt"

	"github.com/hupe1980/plsom/blobstore"
	"github.com/hupe1980/plsom/som"
)

// Save encodes m and writes it to store under name.
func Save(ctx context.Context, store blobstore.Store, name string, m som.Model, opts ...Option) error {
	data, err := Encode(m, opts...)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("put snapshot %s: %w", name, err)
	}
	return nil
}

// Load reads the snapshot name from store and rebuilds the map.
func Load(ctx context.Context, store blobstore.Store, name string, opts ...som.Option) (som.Model, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", name, err)
	}
	return Decode(data, opts...)
}
