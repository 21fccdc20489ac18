// Package genre resolves and repairs genre labels for artists.
package genre

import "sync"

// Cache is a process-lifetime map from artist name to resolved genre
// label. Unbounded; entries live until evicted or the process exits.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates an empty genre cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get returns the cached label for an artist, if any.
func (c *Cache) Get(artist string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	label, ok := c.entries[artist]
	return label, ok
}

// Put stores the label for an artist.
func (c *Cache) Put(artist, label string) {
	c.mu.Lock()
	c.entries[artist] = label
	c.mu.Unlock()
}

// Evict removes an artist's entry so the next resolution starts fresh.
func (c *Cache) Evict(artist string) {
	c.mu.Lock()
	delete(c.entries, artist)
	c.mu.Unlock()
}

// Len returns the number of cached artists.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
