package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects render and cache counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	rendersActive  prometheus.Gauge

	cacheLookups *prometheus.CounterVec
	listSize     prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers collectors on the default registry.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry registers collectors on a custom registry.
func NewWithRegistry(namespace string, registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{gatherer: gatherer}

	m.rendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renders_total",
		Help:      "Total number of browser renders",
	}, []string{"page", "status"}) // page: list, detail; status: success, error, empty

	m.renderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Time spent rendering upstream pages",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s to ~2min
	}, []string{"page"})

	m.rendersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "renders_active",
		Help:      "Number of renders currently holding a browser context",
	})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by cache and result",
	}, []string{"cache", "result"}) // cache: list, detail; result: hit, miss

	m.listSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "list_tiles",
		Help:      "Number of tiles in the list cache",
	})

	registerer.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.rendersActive,
		m.cacheLookups,
		m.listSize,
	)
	return m
}

// RecordRender records one finished render of the given page kind.
func (m *Metrics) RecordRender(page, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(page, status).Inc()
	m.renderDuration.WithLabelValues(page).Observe(d.Seconds())
}

// RenderStarted and RenderFinished track renders in flight.
func (m *Metrics) RenderStarted() {
	if m == nil {
		return
	}
	m.rendersActive.Inc()
}

func (m *Metrics) RenderFinished() {
	if m == nil {
		return
	}
	m.rendersActive.Dec()
}

// RecordCacheLookup counts a hit or miss on cache ("list" or "detail").
func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// SetListSize reports the current tile count.
func (m *Metrics) SetListSize(n int) {
	if m == nil {
		return
	}
	m.listSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
