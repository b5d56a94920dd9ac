package persistence

import (
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/plsom/som"
)

// Factory constructs a map of a registered kind from its configuration.
// opts are applied after the options derived from cfg.
type Factory func(cfg som.Config, opts ...som.Option) (som.Model, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a map kind available to Decode and New.
//
// Packages typically call this from an init() function. Registering the same
// kind twice replaces the earlier factory.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = f
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// New constructs a fresh map of the kind recorded in cfg.
func New(cfg som.Config, opts ...som.Option) (som.Model, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
	return f(cfg, opts...)
}
