package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/emotedex/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// PoolStatser reports render concurrency. *scraper.Scraper implements it.
type PoolStatser interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /api/health.
//
// Reports cache and render-slot utilisation; degrades status when every
// render slot is busy.
func Health(svc EmoteService, pool PoolStatser, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		if stats.MaxRenders > 0 && stats.ActiveRenders >= stats.MaxRenders {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     status,
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			CacheStats: svc.Stats(),
			PoolStats:  stats,
			Version:    Version,
		})
	}
}
