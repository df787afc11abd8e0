package cache

import (
	"sync"
	"time"

	"github.com/use-agent/emotedex/models"
)

// ListCache holds the last successfully extracted tile list and its fetch
// time. It is safe for concurrent use.
//
// The zero UpdatedAt means "never populated" or "forced stale".
type ListCache struct {
	mu        sync.RWMutex
	tiles     []models.Tile
	updatedAt time.Time
	now       func() time.Time
}

// NewListCache creates an empty ListCache.
func NewListCache() *ListCache {
	return &ListCache{now: time.Now}
}

// SetClock replaces the time source. Intended for tests.
func (c *ListCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Fresh reports whether the cached list is usable: non-empty and younger
// than maxAge. A maxAge <= 0 is never fresh.
func (c *ListCache) Fresh(maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.tiles) == 0 || c.updatedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.updatedAt) < maxAge
}

// Snapshot returns the current tiles and fetch time. The returned slice
// is shared and must not be modified.
func (c *ListCache) Snapshot() ([]models.Tile, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tiles, c.updatedAt
}

// Replace atomically stores a new list stamped with the current time.
func (c *ListCache) Replace(tiles []models.Tile) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tiles = tiles
	c.updatedAt = c.now()
	return c.updatedAt
}

// MarkStale zeroes the fetch time so the next freshness check fails. The
// previously cached tiles are kept.
func (c *ListCache) MarkStale() {
	c.mu.Lock()
	c.updatedAt = time.Time{}
	c.mu.Unlock()
}

// Lookup returns the image URL of the tile named exactly name.
func (c *ListCache) Lookup(name string) (*string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, t := range c.tiles {
		if t.Name == name {
			return t.ImageURL, true
		}
	}
	return nil, false
}

// Len returns the number of cached tiles.
func (c *ListCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tiles)
}

// EpochSeconds renders t as fractional Unix seconds, 0 for the zero time.
func EpochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
