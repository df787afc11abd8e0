package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/emotedex/models"
)

const defaultLimit = 300

// searchQuery binds the GET /api/emotes query string.
type searchQuery struct {
	// Q is a whitespace-separated list of terms; all must match.
	Q string `form:"q"`

	// Limit caps the returned items. Default 300, range 1..2000.
	Limit *int `form:"limit" binding:"omitempty,min=1,max=2000"`
}

// SearchEmotes returns a handler for GET /api/emotes.
func SearchEmotes(svc EmoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q searchQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondError(c, models.NewError(models.ErrKindValidation, err.Error(), nil))
			return
		}
		limit := defaultLimit
		if q.Limit != nil {
			limit = *q.Limit
		}

		resp, err := svc.Search(c.Request.Context(), q.Q, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Refresh returns a handler for POST /api/refresh. It always re-renders the
// catalog, even if the cached list is fresh.
func Refresh(svc EmoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.Refresh(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// EmoteDetail returns a handler for GET /api/emotes/:name.
func EmoteDetail(svc EmoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := svc.Detail(c.Request.Context(), c.Param("name"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}
