package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/emotedex/api/handler"
	"github.com/use-agent/emotedex/api/middleware"
	"github.com/use-agent/emotedex/config"
	"github.com/use-agent/emotedex/metrics"
	"github.com/use-agent/emotedex/models"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery (→ 500 InternalError) → Logger
//	API:     RateLimit (if enabled)
//
// Health and metrics stay outside the limiter so probes always work.
// m may be nil, in which case /metrics is not mounted.
func NewRouter(svc handler.EmoteService, pool handler.PoolStatser, cfg *config.Config, m *metrics.Metrics, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	// Route on the escaped path so an emote name may contain "%2F".
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
		err := models.NewError(models.ErrKindInternal, fmt.Sprint(recovered), nil)
		c.AbortWithStatusJSON(http.StatusInternalServerError, err.ToDetail())
	}))
	r.Use(gin.Logger())

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", handler.Health(svc, pool, startTime))

	limited := apiGroup.Group("")
	if cfg.RateLimit.Enabled {
		limited.Use(middleware.RateLimit(cfg.RateLimit))
	}

	limited.GET("/emotes", handler.SearchEmotes(svc))
	limited.GET("/emotes/:name", handler.EmoteDetail(svc))
	limited.POST("/refresh", handler.Refresh(svc))

	return r
}
