package view

import (
	"context"
	"sync"

	"tradelens/internal/model"
	"tradelens/internal/store"
)

// Cache serves the reconstructed document and rebuilds it only when the
// store's version marker has moved past the one the cached copy was built
// from. Callers must treat the returned document as read-only.
type Cache struct {
	store store.Store

	mu      sync.Mutex
	doc     *model.Document
	builtAt int64
	valid   bool
}

func NewCache(s store.Store) *Cache {
	return &Cache{store: s}
}

// Get returns the current document, rebuilding synchronously if the store
// has advanced. A failed rebuild returns the error and leaves any previously
// cached document untouched, so the next call retries.
func (c *Cache) Get(ctx context.Context) (*model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	version, err := c.store.Version(ctx)
	if err != nil {
		return nil, err
	}
	if c.valid && version == c.builtAt {
		return c.doc, nil
	}

	snap, err := c.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := Build(snap)
	if err != nil {
		return nil, err
	}

	c.doc = doc
	c.builtAt = version
	c.valid = true
	return doc, nil
}

// Invalidate drops the cached document; the next Get rebuilds.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
