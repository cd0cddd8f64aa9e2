package service

import (
	"strings"
	"sync"
	"time"
)

// cacheEntry pairs a computed chart value with its expiry.
type cacheEntry struct {
	value      any
	expiration time.Time
}

// ttlCache is the only shared mutable state in the analytics core:
// a time-keyed map of finished chart responses.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newTTLCache() *ttlCache {
	return &ttlCache{entries: make(map[string]cacheEntry)}
}

func (c *ttlCache) get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiration) {
		return nil, false
	}
	return entry.value, true
}

func (c *ttlCache) set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiration: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// invalidate drops every key whose provider segment matches, or all
// keys when provider is empty. Keys are "<chart>|<provider>|...".
func (c *ttlCache) invalidate(provider string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key := range c.entries {
		if provider != "" {
			parts := strings.SplitN(key, "|", 3)
			if len(parts) < 2 || parts[1] != provider {
				continue
			}
		}
		delete(c.entries, key)
		dropped++
	}
	return dropped
}
