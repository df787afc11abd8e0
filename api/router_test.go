package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/emotedex/config"
	"github.com/use-agent/emotedex/metrics"
	"github.com/use-agent/emotedex/models"
)

type fakeService struct {
	searchQuery string
	searchLimit int
	searchErr   error
	detailName  string
	detailErr   error
	refreshErr  error
	panicOn     string
}

func (f *fakeService) Search(_ context.Context, query string, limit int) (models.SearchResponse, error) {
	if f.panicOn == "search" {
		panic("unexpected nil tile")
	}
	f.searchQuery, f.searchLimit = query, limit
	if f.searchErr != nil {
		return models.SearchResponse{}, f.searchErr
	}
	img := "https://cdn.example/goat.png"
	return models.SearchResponse{
		Count:     1,
		UpdatedAt: 1700000000.25,
		Items:     []models.Tile{{Name: "Golden Goat", ImageURL: &img}},
	}, nil
}

func (f *fakeService) Refresh(context.Context) (models.RefreshResponse, error) {
	if f.refreshErr != nil {
		return models.RefreshResponse{}, f.refreshErr
	}
	return models.RefreshResponse{OK: true, Count: 12, UpdatedAt: 1700000000}, nil
}

func (f *fakeService) Detail(_ context.Context, name string) (models.DetailRecord, error) {
	f.detailName = name
	if f.detailErr != nil {
		return models.DetailRecord{}, f.detailErr
	}
	return models.DetailRecord{
		EmoteName:  name,
		Tier:       models.StringPtr("Tier 3"),
		DetailsURL: "https://pixelbypixel.studio/emotes?emoteName=" + name,
	}, nil
}

func (f *fakeService) Stats() models.CacheStats {
	return models.CacheStats{Tiles: 12, Details: 3}
}

type fakePool struct{ stats models.PoolStats }

func (p fakePool) Stats() models.PoolStats { return p.stats }

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.RateLimit.Enabled = false
	return cfg
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestSearch_DefaultsAndShape(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, fakePool{}, testConfig(), nil, time.Now())

	rec := do(t, r, http.MethodGet, "/api/emotes?q=golden+goat")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "golden goat", svc.searchQuery)
	assert.Equal(t, 300, svc.searchLimit)
	assert.JSONEq(t, `{
		"count": 1,
		"updatedAt": 1700000000.25,
		"items": [{"name": "Golden Goat", "imageUrl": "https://cdn.example/goat.png"}]
	}`, rec.Body.String())
}

func TestSearch_LimitValidation(t *testing.T) {
	tests := []struct {
		limit string
		want  int
	}{
		{"1", http.StatusOK},
		{"2000", http.StatusOK},
		{"0", http.StatusUnprocessableEntity},
		{"2001", http.StatusUnprocessableEntity},
		{"many", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.limit, func(t *testing.T) {
			svc := &fakeService{}
			r := NewRouter(svc, fakePool{}, testConfig(), nil, time.Now())

			rec := do(t, r, http.MethodGet, "/api/emotes?limit="+tt.limit)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want != http.StatusOK {
				assert.True(t, strings.HasPrefix(decodeDetail(t, rec), models.ErrKindValidation+": "))
			}
		})
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "render",
			err:        models.NewError(models.ErrKindRender, "navigation failed", errors.New("net::ERR_TIMED_OUT")),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "RenderError: navigation failed: net::ERR_TIMED_OUT",
		},
		{
			name:       "upstream empty",
			err:        models.NewError(models.ErrKindUpstreamEmpty, "parsed 0 emote tiles after rendering", nil),
			wantStatus: http.StatusBadGateway,
			wantDetail: "UpstreamEmptyError: parsed 0 emote tiles after rendering",
		},
		{
			name:       "untyped",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "InternalError: disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(&fakeService{searchErr: tt.err}, fakePool{}, testConfig(), nil, time.Now())

			rec := do(t, r, http.MethodGet, "/api/emotes")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDetail, decodeDetail(t, rec))
		})
	}
}

func TestRefresh(t *testing.T) {
	r := NewRouter(&fakeService{}, fakePool{}, testConfig(), nil, time.Now())

	rec := do(t, r, http.MethodPost, "/api/refresh")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true, "count": 12, "updatedAt": 1700000000}`, rec.Body.String())
}

func TestRefresh_UpstreamEmpty(t *testing.T) {
	svc := &fakeService{refreshErr: models.NewError(models.ErrKindUpstreamEmpty, "parsed 0 emote tiles after rendering", nil)}
	r := NewRouter(svc, fakePool{}, testConfig(), nil, time.Now())

	rec := do(t, r, http.MethodPost, "/api/refresh")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDetail_PathIsDecoded(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, fakePool{}, testConfig(), nil, time.Now())

	rec := do(t, r, http.MethodGet, "/api/emotes/Golden%20Goat")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Golden Goat", svc.detailName)
	assert.JSONEq(t, `{
		"emoteName": "Golden Goat",
		"channel": null,
		"channelUrl": null,
		"source": null,
		"tier": "Tier 3",
		"expires": null,
		"detailsUrl": "https://pixelbypixel.studio/emotes?emoteName=Golden Goat",
		"notFound": false,
		"imageUrl": null
	}`, rec.Body.String())
}

func TestDetail_NameWithEscapedSlash(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, fakePool{}, testConfig(), nil, time.Now())

	rec := do(t, r, http.MethodGet, "/api/emotes/Goat%2FFrog")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Goat/Frog", svc.detailName)
}

func TestDetail_RenderError(t *testing.T) {
	svc := &fakeService{detailErr: models.NewError(models.ErrKindRender, "failed to render emote details", nil)}
	r := NewRouter(svc, fakePool{}, testConfig(), nil, time.Now())

	rec := do(t, r, http.MethodGet, "/api/emotes/Golden%20Goat")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "RenderError: failed to render emote details", decodeDetail(t, rec))
}

func TestPanicRecovery(t *testing.T) {
	r := NewRouter(&fakeService{panicOn: "search"}, fakePool{}, testConfig(), nil, time.Now())

	rec := do(t, r, http.MethodGet, "/api/emotes")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "InternalError: unexpected nil tile", decodeDetail(t, rec))
}

func TestHealth(t *testing.T) {
	pool := fakePool{stats: models.PoolStats{MaxRenders: 2, ActiveRenders: 2}}
	r := NewRouter(&fakeService{}, pool, testConfig(), nil, time.Now())

	rec := do(t, r, http.MethodGet, "/api/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, 12, body.CacheStats.Tiles)
	assert.Equal(t, 3, body.CacheStats.Details)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 2
	r := NewRouter(&fakeService{}, fakePool{}, cfg, nil, time.Now())

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/emotes").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/emotes").Code)

	rec := do(t, r, http.MethodGet, "/api/emotes")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RateLimited: rate limit exceeded, please slow down", decodeDetail(t, rec))

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/health").Code, "health is not limited")
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry("emotedex", registry, registry)
	m.RecordCacheLookup("list", true)
	r := NewRouter(&fakeService{}, fakePool{}, testConfig(), m, time.Now())

	rec := do(t, r, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `emotedex_cache_lookups_total{cache="list",result="hit"} 1`)
}
