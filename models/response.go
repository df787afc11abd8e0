package models

// SearchResponse is the response for GET /api/emotes.
type SearchResponse struct {
	// Count is the number of matches before the limit is applied.
	Count int `json:"count"`

	// UpdatedAt is the list cache fetch time in epoch seconds (0 if never populated).
	UpdatedAt float64 `json:"updatedAt"`

	Items []Tile `json:"items"`
}

// RefreshResponse is the response for POST /api/refresh.
type RefreshResponse struct {
	OK        bool    `json:"ok"`
	Count     int     `json:"count"`
	UpdatedAt float64 `json:"updatedAt"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status     string     `json:"status"` // "healthy" or "degraded"
	Uptime     string     `json:"uptime"`
	CacheStats CacheStats `json:"cache_stats"`
	PoolStats  PoolStats  `json:"pool_stats"`
	Version    string     `json:"version"`
}

// CacheStats reports the size and age of both caches.
type CacheStats struct {
	Tiles         int     `json:"tiles"`
	ListUpdatedAt float64 `json:"list_updated_at"`
	Details       int     `json:"details"`
}

// PoolStats reports render concurrency.
type PoolStats struct {
	MaxRenders    int `json:"max_renders"`
	ActiveRenders int `json:"active_renders"`
}
