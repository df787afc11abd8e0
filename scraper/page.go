package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/emotedex/extractor"
	"github.com/use-agent/emotedex/models"
	"github.com/ysmood/gson"
)

// extraHeaders are sent with every navigation.
var extraHeaders = map[string]string{
	"Accept-Language": "en-US,en;q=0.9",
}

// textVisibleJS reports whether t is part of the rendered (visible) text.
const textVisibleJS = `(t) => !!document.body && document.body.innerText.includes(t)`

// tilesJS maps every emote anchor to {name, imageUrl} in page context.
// The image comes from a descendant <img> (resolved source first), else from
// the anchor's computed background-image.
const tilesJS = `(sel) => Array.from(document.querySelectorAll(sel)).map(a => {
	let name = null;
	try { name = new URL(a.href).searchParams.get("emoteName"); } catch (e) {}

	const img = a.querySelector("img");
	let imageUrl = img ? (img.currentSrc || img.src) : null;

	if (!imageUrl) {
		const bg = getComputedStyle(a).backgroundImage || "";
		const m = bg.match(/url\(["']?(.*?)["']?\)/);
		if (m && m[1]) imageUrl = m[1];
	}
	return { name, imageUrl };
}).filter(x => x.name)`

// Render navigates to url and returns the final serialized DOM.
//
// Lifecycle:
//
//  1. Acquire a render slot   – bounded by BrowserConfig.MaxRenders
//  2. Open incognito context  – hermetic per call, disposed on return
//  3. Stealth + hijack        – installed before navigation
//  4. Navigate                – wait for DOMContentLoaded (NavigationTimeout)
//  5. Hint wait               – best-effort, TextWaitTimeout, never fails the render
//  6. Extract                 – page.HTML()
func (s *Scraper) Render(ctx context.Context, url, waitForText string) (string, error) {
	start := time.Now()
	var html string

	err := s.withPage(ctx, url, func(p *rod.Page) error {
		if waitForText != "" {
			s.waitForText(ctx, p, waitForText)
		}

		var err error
		html, err = p.Context(ctx).HTML()
		if err != nil {
			return categorizeError(err, "failed to extract page HTML")
		}
		return nil
	})

	s.metrics.RecordRender("detail", renderStatus(err), time.Since(start))
	if err != nil {
		return "", err
	}
	return html, nil
}

// RenderTiles navigates to the catalog, waits for the first emote anchor to
// appear (SelectorTimeout) and reads every anchor's name and image in page
// context. If in-page evaluation fails the serialized DOM is parsed instead.
func (s *Scraper) RenderTiles(ctx context.Context, url string) ([]models.RawTile, error) {
	start := time.Now()
	var tiles []models.RawTile

	err := s.withPage(ctx, url, func(p *rod.Page) error {
		if _, err := p.Context(ctx).Timeout(s.cfg.SelectorTimeout).Element(extractor.TileAnchorSelector); err != nil {
			return categorizeError(err, "no emote links appeared in the catalog")
		}

		res, err := p.Context(ctx).Eval(tilesJS, extractor.TileAnchorSelector)
		if err == nil {
			tiles = decodeTiles(res.Value)
			return nil
		}
		slog.Warn("in-page tile extraction failed, parsing serialized DOM",
			"url", url, "error", err,
		)

		html, htmlErr := p.Context(ctx).HTML()
		if htmlErr != nil {
			return categorizeError(htmlErr, "failed to extract page HTML")
		}
		tiles, err = extractor.ParseTiles(html, url)
		if err != nil {
			return models.NewError(models.ErrKindInternal, "failed to parse catalog HTML", err)
		}
		return nil
	})

	status := renderStatus(err)
	if err == nil && len(tiles) == 0 {
		status = "empty"
	}
	s.metrics.RecordRender("list", status, time.Since(start))

	if err != nil {
		return nil, err
	}
	return tiles, nil
}

// withPage runs fn on a freshly navigated page inside its own incognito
// context. The context and page are torn down before returning.
func (s *Scraper) withPage(ctx context.Context, url string, fn func(p *rod.Page) error) error {
	// ── 1. Render slot ────────────────────────────────────────────────
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	// ── 2. Isolated browser context ───────────────────────────────────
	incognito, err := s.browser.Incognito()
	if err != nil {
		return models.NewError(models.ErrKindRender, "failed to open browser context", err)
	}
	defer func() {
		if closeErr := incognito.Close(); closeErr != nil {
			slog.Warn("cleanup: failed to dispose browser context", "error", closeErr)
		}
	}()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return models.NewError(models.ErrKindRender, "failed to create page", err)
	}

	// ── 3. Stealth, headers, resource blocking ────────────────────────
	if s.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(extraHeaders)}.Call(page)

	if router := setupHijack(page, blockedSet(s.cfg.BlockedResourceTypes)); router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 4. Navigate, wait for DOMContentLoaded ────────────────────────
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	p := page.Context(navCtx)
	waitDOM := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to "+url+" failed")
	}
	waitDOM()
	if err := navCtx.Err(); err != nil {
		return categorizeError(err, "navigation to "+url+" did not reach DOMContentLoaded")
	}

	return fn(page)
}

// waitForText waits briefly for text to become visible. A timeout only
// means the hint was absent (e.g. permanent emotes have no expiry).
func (s *Scraper) waitForText(ctx context.Context, page *rod.Page, text string) {
	err := page.Context(ctx).Timeout(s.cfg.TextWaitTimeout).Wait(rod.Eval(textVisibleJS, text))
	if err != nil {
		slog.Debug("hint text not visible, continuing with current DOM",
			"text", text, "error", err,
		)
	}
}

// decodeTiles converts the page-context result array to raw tiles.
func decodeTiles(v gson.JSON) []models.RawTile {
	items := v.Arr()
	tiles := make([]models.RawTile, 0, len(items))
	for _, item := range items {
		tiles = append(tiles, models.RawTile{
			Name:     jsonString(item.Get("name")),
			ImageURL: jsonString(item.Get("imageUrl")),
		})
	}
	return tiles
}

func jsonString(v gson.JSON) string {
	if v.Nil() {
		return ""
	}
	return v.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

func renderStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// categorizeError wraps raw browser errors into a RenderError so the API
// layer can map them to a status code.
func categorizeError(err error, msg string) *models.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewError(models.ErrKindRender, msg+" (timeout)", err)
	case errors.Is(err, context.Canceled):
		return models.NewError(models.ErrKindRender, msg+" (canceled)", err)
	default:
		return models.NewError(models.ErrKindRender, msg, err)
	}
}
