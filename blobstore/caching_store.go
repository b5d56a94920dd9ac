package blobstore

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a Store with a read-through LRU cache bounded by total
// blob bytes. Writes and deletes invalidate the cached entry.
type CachingStore struct {
	inner    Store
	maxBytes int64

	mu      sync.Mutex
	size    int64
	lru     *list.List
	entries map[string]*list.Element

	hits, misses int64
}

type cacheEntry struct {
	name string
	data []byte
}

// NewCachingStore creates a new CachingStore. maxBytes defaults to 64 MiB if <= 0.
func NewCachingStore(inner Store, maxBytes int64) *CachingStore {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &CachingStore{
		inner:    inner,
		maxBytes: maxBytes,
		lru:      list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get serves the blob from cache or loads it from the inner store. The
// returned slice must not be modified.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if data, ok := s.lookup(name); ok {
		return data, nil
	}
	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.insert(name, data)
	return data, nil
}

// Prefetch loads the named blobs into the cache in parallel.
func (s *CachingStore) Prefetch(ctx context.Context, names ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	// Limit concurrency to avoid FD exhaustion or rate limits
	g.SetLimit(16)
	for _, name := range names {
		g.Go(func() error {
			_, err := s.Get(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// Put writes through to the inner store.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes the blob from cache and inner store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List is not cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns the cache hits, misses and cached bytes.
func (s *CachingStore) Stats() (hits, misses, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses, s.size
}

func (s *CachingStore) lookup(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[name]
	if !ok {
		s.misses++
		return nil, false
	}
	s.hits++
	s.lru.MoveToFront(el)
	return el.Value.(*cacheEntry).data, true
}

func (s *CachingStore) insert(name string, data []byte) {
	if int64(len(data)) > s.maxBytes {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[name]; ok {
		s.remove(el)
	}
	s.entries[name] = s.lru.PushFront(&cacheEntry{name: name, data: data})
	s.size += int64(len(data))
	for s.size > s.maxBytes {
		s.remove(s.lru.Back())
	}
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[name]; ok {
		s.remove(el)
	}
}

func (s *CachingStore) remove(el *list.Element) {
	e := s.lru.Remove(el).(*cacheEntry)
	delete(s.entries, e.name)
	s.size -= int64(len(e.data))
}
