package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/emotedex/cache"
	"github.com/use-agent/emotedex/extractor"
	"github.com/use-agent/emotedex/metrics"
	"github.com/use-agent/emotedex/models"
	"golang.org/x/sync/singleflight"
)

// Singleflight keys of the list refresh. A forced refresh never joins a
// staleness-checked flight, which may return without rendering.
const (
	listFlightKey      = "list"
	listForceFlightKey = "list:force"
)

// Renderer produces rendered upstream pages. *scraper.Scraper implements it.
type Renderer interface {
	// Render returns the final DOM of url. waitForText, if set, is a
	// best-effort hint to wait for before serializing.
	Render(ctx context.Context, url, waitForText string) (string, error)

	// RenderTiles renders the catalog at url and returns its raw tiles.
	RenderTiles(ctx context.Context, url string) ([]models.RawTile, error)
}

// Options configures a Service.
type Options struct {
	// BaseURL is the catalog page.
	BaseURL string

	// ListMaxAge is the staleness bound used by Search and enrichment.
	ListMaxAge time.Duration

	Metrics *metrics.Metrics
}

// Service answers search and detail queries from the two caches, rendering
// upstream pages only when a cache is stale. It is safe for concurrent use:
// each singleflight key has at most one render in flight.
type Service struct {
	renderer Renderer
	list     *cache.ListCache
	details  *cache.DetailCache
	opts     Options
	flight   singleflight.Group
}

// New creates a Service owning list and details.
func New(r Renderer, list *cache.ListCache, details *cache.DetailCache, opts Options) *Service {
	return &Service{
		renderer: r,
		list:     list,
		details:  details,
		opts:     opts,
	}
}

// EnsureListFresh refreshes the list cache unless it is non-empty and
// younger than maxAge. maxAge <= 0 always refreshes.
//
// A render failure leaves the cache untouched. A render that yields no tiles
// marks the cache stale (so the next call retries) but keeps the previous
// tiles, and returns an UpstreamEmptyError.
func (s *Service) EnsureListFresh(ctx context.Context, maxAge time.Duration) error {
	if s.list.Fresh(maxAge) {
		s.opts.Metrics.RecordCacheLookup("list", true)
		return nil
	}
	s.opts.Metrics.RecordCacheLookup("list", false)

	key := listFlightKey
	if maxAge <= 0 {
		key = listForceFlightKey
	}
	_, err, shared := s.flight.Do(key, func() (any, error) {
		// A refresh may have landed between the check above and this flight.
		if maxAge > 0 && s.list.Fresh(maxAge) {
			return nil, nil
		}
		return nil, s.refreshList(context.WithoutCancel(ctx))
	})
	if shared {
		slog.Debug("joined in-flight list refresh")
	}
	return err
}

func (s *Service) refreshList(ctx context.Context) error {
	start := time.Now()

	raw, err := s.renderer.RenderTiles(ctx, s.opts.BaseURL)
	if err != nil {
		return asKind(err, models.ErrKindRender, "failed to render emote list")
	}

	tiles := extractor.NormalizeTiles(raw)
	if len(tiles) == 0 {
		s.list.MarkStale()
		slog.Warn("emote list render yielded no tiles", "url", s.opts.BaseURL, "raw", len(raw))
		return models.NewError(models.ErrKindUpstreamEmpty, "parsed 0 emote tiles after rendering", nil)
	}

	updatedAt := s.list.Replace(tiles)
	s.opts.Metrics.SetListSize(len(tiles))
	slog.Info("emote list refreshed",
		"tiles", len(tiles),
		"duplicates", len(raw)-len(tiles),
		"updatedAt", updatedAt,
		"elapsed", time.Since(start),
	)
	return nil
}

// Search returns the tiles matching query in list order. Count is the
// number of matches before truncation to limit; limit <= 0 means no limit.
func (s *Service) Search(ctx context.Context, query string, limit int) (models.SearchResponse, error) {
	if err := s.EnsureListFresh(ctx, s.opts.ListMaxAge); err != nil {
		return models.SearchResponse{}, err
	}

	tiles, updatedAt := s.list.Snapshot()
	matches := Filter(tiles, query)

	resp := models.SearchResponse{
		Count:     len(matches),
		UpdatedAt: cache.EpochSeconds(updatedAt),
		Items:     matches,
	}
	if limit > 0 && len(matches) > limit {
		resp.Items = matches[:limit]
	}
	return resp, nil
}

// Refresh forces a list render regardless of freshness.
func (s *Service) Refresh(ctx context.Context) (models.RefreshResponse, error) {
	if err := s.EnsureListFresh(ctx, 0); err != nil {
		return models.RefreshResponse{}, err
	}

	tiles, updatedAt := s.list.Snapshot()
	return models.RefreshResponse{
		OK:        true,
		Count:     len(tiles),
		UpdatedAt: cache.EpochSeconds(updatedAt),
	}, nil
}

// Detail returns the detail record of name, rendering the emote's detail
// view on a cache miss. The image URL is looked up in the list cache; any
// failure there leaves ImageURL nil instead of failing the request.
func (s *Service) Detail(ctx context.Context, name string) (models.DetailRecord, error) {
	if rec, ok := s.details.Get(name); ok {
		s.opts.Metrics.RecordCacheLookup("detail", true)
		return rec, nil
	}
	s.opts.Metrics.RecordCacheLookup("detail", false)

	v, err, _ := s.flight.Do("detail:"+name, func() (any, error) {
		if rec, ok := s.details.Get(name); ok {
			return rec, nil
		}
		return s.fetchDetail(context.WithoutCancel(ctx), name)
	})
	if err != nil {
		return models.DetailRecord{}, err
	}
	return v.(models.DetailRecord), nil
}

func (s *Service) fetchDetail(ctx context.Context, name string) (models.DetailRecord, error) {
	url := extractor.DetailsURL(s.opts.BaseURL, name)

	html, err := s.renderer.Render(ctx, url, extractor.ExpiresMarker)
	if err != nil {
		return models.DetailRecord{}, asKind(err, models.ErrKindRender, "failed to render emote details")
	}

	rec := extractor.ExtractDetail(name, html, s.opts.BaseURL)
	rec.ImageURL = s.lookupImage(ctx, name)

	s.details.Set(name, rec)
	slog.Debug("emote detail cached", "name", name, "notFound", rec.NotFound)
	return rec, nil
}

// lookupImage finds name's image in the list cache, refreshing the list if
// it is stale. Failures degrade to nil.
func (s *Service) lookupImage(ctx context.Context, name string) *string {
	if err := s.EnsureListFresh(ctx, s.opts.ListMaxAge); err != nil {
		slog.Warn("image enrichment skipped", "name", name, "error", err)
		return nil
	}
	img, _ := s.list.Lookup(name)
	return img
}

// Stats reports cache sizes for the health endpoint.
func (s *Service) Stats() models.CacheStats {
	_, updatedAt := s.list.Snapshot()
	return models.CacheStats{
		Tiles:         s.list.Len(),
		ListUpdatedAt: cache.EpochSeconds(updatedAt),
		Details:       s.details.Len(),
	}
}

// asKind keeps an existing *models.Error and wraps anything else in kind.
func asKind(err error, kind, msg string) error {
	var typed *models.Error
	if errors.As(err, &typed) {
		return err
	}
	return models.NewError(kind, msg, err)
}
