// Package cache provides short-lived memoization of derived aggregates.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Cache is a TTL map for derived snapshots (team stats, gamification state).
// Writers never patch cached values: a mutation invalidates the key and the
// next read recomputes, preventing drift between patched and derived data.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// New constructs a Cache with the supplied TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// TeamStatsKey names the cached aggregate for a tribe.
func TeamStatsKey(tribeID string) string {
	return "teamstats:" + tribeID
}

// GamificationKey names the cached state for a user.
func GamificationKey(userID string) string {
	return "gamification:" + userID
}

// Get returns the cached value when present and unexpired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.entries[key]
	if !ok || c.now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores a freshly derived value under the key.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// InvalidatePrefix drops every key sharing the prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}
