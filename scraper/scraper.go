package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/emotedex/config"
	"github.com/use-agent/emotedex/metrics"
	"github.com/use-agent/emotedex/models"
	"golang.org/x/sync/semaphore"
)

// Scraper owns the browser process and renders upstream pages. Every render
// runs in its own incognito browser context, so no cookies, storage or cache
// leak between calls. It is safe for concurrent use.
type Scraper struct {
	browser       *rod.Browser
	cfg           config.BrowserConfig
	renders       *semaphore.Weighted
	activeRenders atomic.Int32
	metrics       *metrics.Metrics
}

// NewScraper launches a headless browser. At most cfg.MaxRenders renders
// hold a browser context at once; further callers queue.
func NewScraper(cfg config.BrowserConfig, m *metrics.Metrics) (*Scraper, error) {
	if cfg.MaxRenders < 1 {
		cfg.MaxRenders = 1
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewError(models.ErrKindRender, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewError(models.ErrKindRender, "failed to connect to browser", err)
	}

	return &Scraper{
		browser: browser,
		cfg:     cfg,
		renders: semaphore.NewWeighted(int64(cfg.MaxRenders)),
		metrics: m,
	}, nil
}

// Stats returns a snapshot of render concurrency.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxRenders:    s.cfg.MaxRenders,
		ActiveRenders: int(s.activeRenders.Load()),
	}
}

// acquire blocks until a render slot is free or ctx is done.
func (s *Scraper) acquire(ctx context.Context) (release func(), err error) {
	if err := s.renders.Acquire(ctx, 1); err != nil {
		return nil, categorizeError(err, "waiting for a free render slot")
	}
	s.activeRenders.Add(1)
	s.metrics.RenderStarted()

	return func() {
		s.metrics.RenderFinished()
		s.activeRenders.Add(-1)
		s.renders.Release(1)
	}, nil
}

// Close kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("scraper shutdown complete")
}
