package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Cache provides read-through access to a Store. It keeps an index of the
// available keys with their metadata and loads content on demand. Content
// whose size or modification time changed on Refresh is evicted.
// All methods are safe for concurrent use.
type Cache struct {
	store   Store
	content map[string][]byte
	index   map[string]Info
	mu      sync.RWMutex
}

// NewCache creates a Cache backed by the given Store.
func NewCache(store Store) *Cache {
	return &Cache{
		store:   store,
		content: make(map[string][]byte),
		index:   make(map[string]Info),
	}
}

// Refresh rebuilds the key index from the store. Cached content for keys
// that disappeared or changed is discarded.
func (c *Cache) Refresh(ctx context.Context) error {
	infos, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}

	next := make(map[string]Info, len(infos))
	for _, info := range infos {
		next[info.Key] = info
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.content {
		old, had := c.index[key]
		cur, has := next[key]
		if !had || !has || old.Size != cur.Size || !old.Modified.Equal(cur.Modified) {
			delete(c.content, key)
		}
	}
	c.index = next
	return nil
}

// Resolve loads content for any of keys not already cached.
func (c *Cache) Resolve(ctx context.Context, keys ...string) error {
	c.mu.RLock()
	var toLoad []string
	for _, key := range keys {
		if _, cached := c.content[key]; !cached {
			toLoad = append(toLoad, key)
		}
	}
	c.mu.RUnlock()

	if len(toLoad) == 0 {
		return nil
	}

	entries, err := c.store.Load(ctx, toLoad...)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	c.mu.Lock()
	for _, e := range entries {
		c.content[e.Key] = e.Value
		if _, indexed := c.index[e.Key]; !indexed {
			c.index[e.Key] = Info{Key: e.Key, Size: int64(len(e.Value))}
		}
	}
	c.mu.Unlock()

	return nil
}

// Get returns a copy of the cached content for key. It never performs I/O.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.content[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(val), true
}

// Info returns the indexed metadata for key.
func (c *Cache) Info(key string) (Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.index[key]
	return info, ok
}

// Keys returns the indexed keys matching suffix (all keys when empty), sorted.
func (c *Cache) Keys(suffix string) []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]Info, 0, len(c.index))
	for key, info := range c.index {
		if strings.HasSuffix(key, suffix) {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})
	return infos
}
