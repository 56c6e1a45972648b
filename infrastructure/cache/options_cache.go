package cache

import (
	"sync"
	"time"

	"useradmin/models"
)

// OptionsCache holds reference data (organisation and role options) for a
// short TTL so every page render does not hit the backend twice.
type OptionsCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]optionsEntry
}

type optionsEntry struct {
	options   []models.Option
	fetchedAt time.Time
}

func NewOptionsCache(ttl time.Duration) *OptionsCache {
	return &OptionsCache{
		ttl:     ttl,
		entries: make(map[string]optionsEntry),
	}
}

func (c *OptionsCache) Get(key string) ([]models.Option, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.fetchedAt) > c.ttl {
		return nil, false
	}
	return e.options, true
}

func (c *OptionsCache) Put(key string, options []models.Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = optionsEntry{options: options, fetchedAt: time.Now()}
}

func (c *OptionsCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
