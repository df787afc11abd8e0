package cache

import (
	"sync"
	"time"

	"github.com/use-agent/emotedex/models"
)

// detailEntry holds a cached record with its creation timestamp.
type detailEntry struct {
	record   models.DetailRecord
	cachedAt time.Time
}

// DetailCache maps a requested emote name to its last extracted record.
// Entries are never evicted; a stale entry is replaced on its next access.
// It is safe for concurrent use.
type DetailCache struct {
	mu     sync.RWMutex
	store  map[string]*detailEntry
	maxAge time.Duration
	now    func() time.Time
}

// NewDetailCache creates a DetailCache whose entries expire after maxAge.
func NewDetailCache(maxAge time.Duration) *DetailCache {
	return &DetailCache{
		store:  make(map[string]*detailEntry),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *DetailCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Get returns the cached record for name if it exists and is younger than
// the cache's max age.
func (c *DetailCache) Get(name string) (models.DetailRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store[name]
	if !ok || c.now().Sub(e.cachedAt) >= c.maxAge {
		return models.DetailRecord{}, false
	}
	return e.record, true
}

// Set stores rec under name, stamped with the current time.
func (c *DetailCache) Set(name string, rec models.DetailRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[name] = &detailEntry{
		record:   rec,
		cachedAt: c.now(),
	}
}

// Len returns the number of entries, stale ones included.
func (c *DetailCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
