package build

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// CacheKey identifies one compilation by path and content.
type CacheKey string

// KeyFor derives the key of a file's compilation. Two files with the same
// text still compile separately since diagnostics carry the path.
func KeyFor(path, text string) CacheKey {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return CacheKey(hex.EncodeToString(h.Sum(nil)))
}

// CacheStats exposes basic metrics.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Cache keeps recently compiled units in memory.
type Cache struct {
	units  *lru.Cache
	hits   int64
	misses int64
}

// NewCache creates a cache holding up to size units.
func NewCache(size int) (*Cache, error) {
	units, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{units: units}, nil
}

// Get returns the unit stored under key.
func (c *Cache) Get(key CacheKey) (*Unit, bool) {
	v, ok := c.units.Get(key)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return v.(*Unit), true
}

// Put stores u under key, evicting the least recently used unit when full.
func (c *Cache) Put(key CacheKey, u *Unit) {
	c.units.Add(key, u)
}

// Invalidate drops key.
func (c *Cache) Invalidate(key CacheKey) {
	c.units.Remove(key)
}

// Purge drops every unit.
func (c *Cache) Purge() {
	c.units.Purge()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Entries: c.units.Len(),
	}
}
