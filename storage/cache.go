package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"climate-dashboard/models"
	"climate-dashboard/utils"
)

// Digest returns the identity of an upload: the hex SHA-256 of its bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Cache memoizes loaded tables by upload digest. Entries are evicted
// oldest-first once capacity is reached, so with capacity 1 a different
// upload invalidates the previous one. Cached tables are shared and must be
// treated as read-only. It is safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	entries  map[string]*models.Table
}

// NewCache creates a Cache holding at most capacity tables (minimum 1).
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*models.Table, capacity),
	}
}

// Get returns the table stored under key.
func (c *Cache) Get(key string) (*models.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[key]
	return t, ok
}

// Put stores table under key, evicting the oldest entries beyond capacity.
func (c *Cache) Put(key string, table *models.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = table
		return
	}
	c.entries[key] = table
	c.order = append(c.order, key)
	for len(c.order) > c.capacity {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedLoader wraps a TableLoader with a Cache keyed by upload digest.
type CachedLoader struct {
	next   TableLoader
	cache  *Cache
	logger *utils.Logger
}

// NewCachedLoader creates a CachedLoader in front of next.
func NewCachedLoader(next TableLoader, cache *Cache, logger *utils.Logger) *CachedLoader {
	return &CachedLoader{next: next, cache: cache, logger: logger}
}

// Load returns the cached table for data's digest, parsing it on a miss.
// Failed loads are not cached.
func (c *CachedLoader) Load(name string, data []byte) (*models.Table, error) {
	key := Digest(data)
	if t, ok := c.cache.Get(key); ok {
		c.logger.Debug("[loader] cache hit for %s (%s)", name, key[:12])
		return t, nil
	}

	t, err := c.next.Load(name, data)
	if err != nil {
		return nil, err
	}
	c.cache.Put(key, t)
	return t, nil
}
