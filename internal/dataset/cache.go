package dataset

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc loads the dataset identified by path.
type LoaderFunc func(ctx context.Context, path string) (*RecordSet, error)

// Cache memoises loaded RecordSets by source path. Sources are static for
// the life of the process, so entries are never invalidated. Failed loads are
// not cached.
type Cache struct {
	mu     sync.RWMutex
	sets   map[string]*RecordSet
	group  singleflight.Group
	loader LoaderFunc
}

func NewCache(loader LoaderFunc) *Cache {
	if loader == nil {
		loader = LoadFile
	}
	return &Cache{
		sets:   make(map[string]*RecordSet),
		loader: loader,
	}
}

// Load returns the cached RecordSet for path, loading it on first use.
// Concurrent callers for the same path share a single load.
func (c *Cache) Load(ctx context.Context, path string) (*RecordSet, error) {
	c.mu.RLock()
	rs, ok := c.sets[path]
	c.mu.RUnlock()
	if ok {
		return rs, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		c.mu.RLock()
		rs, ok := c.sets[path]
		c.mu.RUnlock()
		if ok {
			return rs, nil
		}

		rs, err := c.loader(ctx, path)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.sets[path] = rs
		c.mu.Unlock()
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RecordSet), nil
}

// Len reports how many sources are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}
