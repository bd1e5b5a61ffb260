package index

import (
	"sync"
)

const DefaultCacheSize = 256

// Cache memoizes query embeddings. When full, the oldest entry is evicted.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string][]float32
	order    []string
	capacity int
	hits     int
	misses   int
}

func NewCache(capacity int) *Cache {
	return &Cache{
		entries:  make(map[string][]float32),
		capacity: capacity,
	}
}

func (c *Cache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return vec, ok
}

func (c *Cache) Put(key string, vec []float32) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = vec
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = vec
	c.order = append(c.order, key)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
