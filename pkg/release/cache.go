package release

import (
	"sync"

	"github.com/go-appimage/aimctl/pkg/types"
)

// Cache is a small in-memory store of the last release fetched per
// repo/endpoint key, consulted as a rate-limit fallback and to avoid
// refetching within a single batch install.
type Cache struct {
	mu    sync.RWMutex
	items map[string]types.Release
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]types.Release)}
}

// Get returns the cached release for key, if any.
func (c *Cache) Get(key string) (types.Release, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rel, ok := c.items[key]
	return rel, ok
}

// Put stores rel under key.
func (c *Cache) Put(key string, rel types.Release) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = rel
}
