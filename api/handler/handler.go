package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/emotedex/models"
)

// EmoteService is the query surface the handlers depend on.
// *service.Service implements it.
type EmoteService interface {
	Search(ctx context.Context, query string, limit int) (models.SearchResponse, error)
	Refresh(ctx context.Context) (models.RefreshResponse, error)
	Detail(ctx context.Context, name string) (models.DetailRecord, error)
	Stats() models.CacheStats
}

// respondError maps an error to its HTTP status and writes {"detail": ...}.
// Errors that are not *models.Error are reported as InternalError.
func respondError(c *gin.Context, err error) {
	var typed *models.Error
	if !errors.As(err, &typed) {
		typed = models.NewError(models.ErrKindInternal, err.Error(), nil)
	}
	c.JSON(statusForKind(typed.Kind), typed.ToDetail())
}

// statusForKind translates error kinds to HTTP status codes.
func statusForKind(kind string) int {
	switch kind {
	case models.ErrKindUpstreamEmpty:
		return http.StatusBadGateway // 502
	case models.ErrKindValidation:
		return http.StatusUnprocessableEntity // 422
	case models.ErrKindRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
