package server

import (
	"sync"
	"time"

	"github.com/mj1618/browser-host/internal/model"
)

// cacheEntry holds a cached tab query with its timestamp.
type cacheEntry struct {
	tabs      []model.Tab
	timestamp time.Time
}

// TabCache provides a TTL-based cache of tab queries, keyed by session id.
type TabCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewTabCache creates a new cache. A ttl of 0 disables caching.
func NewTabCache(ttl time.Duration) *TabCache {
	return &TabCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Query returns cached tabs for sessionID if within TTL, otherwise calls
// fetch and stores the result.
func (c *TabCache) Query(sessionID string, fetch func() []model.Tab) []model.Tab {
	if c.ttl == 0 || sessionID == "" {
		return fetch()
	}

	c.mu.Lock()
	if entry, ok := c.entries[sessionID]; ok && c.now().Sub(entry.timestamp) < c.ttl {
		tabs := entry.tabs
		c.mu.Unlock()
		return tabs
	}
	c.mu.Unlock()

	tabs := fetch()

	c.mu.Lock()
	c.entries[sessionID] = cacheEntry{tabs: tabs, timestamp: c.now()}
	c.mu.Unlock()

	return tabs
}

// InvalidateSession removes the entry for one session.
func (c *TabCache) InvalidateSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}

// InvalidateAll clears the entire cache.
func (c *TabCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
