package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recording(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry("emotedex", registry, registry)

	m.RecordRender("list", "success", 2*time.Second)
	m.RecordRender("detail", "error", time.Second)
	m.RecordRender("detail", "error", time.Second)
	m.RecordCacheLookup("detail", true)
	m.RecordCacheLookup("detail", false)
	m.SetListSize(42)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rendersTotal.WithLabelValues("list", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rendersTotal.WithLabelValues("detail", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("detail", "hit")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.listSize))
}

func TestMetrics_ActiveGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry("emotedex", registry, registry)

	m.RenderStarted()
	m.RenderStarted()
	m.RenderFinished()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rendersActive))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRender("list", "success", time.Second)
		m.RenderStarted()
		m.RenderFinished()
		m.RecordCacheLookup("list", true)
		m.SetListSize(1)
	})
}

func TestMetrics_HTTPEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry("emotedex", registry, registry)
	m.RecordRender("list", "success", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `emotedex_renders_total{page="list",status="success"} 1`)
}
