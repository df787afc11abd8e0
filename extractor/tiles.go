package extractor

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/emotedex/models"
)

// backgroundURLRe pulls the URL literal out of a CSS background-image value.
var backgroundURLRe = regexp.MustCompile(`url\(["']?(.*?)["']?\)`)

// NormalizeTiles turns raw catalog pairs into the stored tile list: names are
// trimmed, empty names dropped, duplicates removed by exact name (first seen
// wins) and the result sorted by name case-insensitively.
func NormalizeTiles(raw []models.RawTile) []models.Tile {
	seen := make(map[string]struct{}, len(raw))
	tiles := make([]models.Tile, 0, len(raw))

	for _, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tiles = append(tiles, models.Tile{
			Name:     name,
			ImageURL: models.StringPtr(r.ImageURL),
		})
	}

	sort.SliceStable(tiles, func(i, j int) bool {
		return strings.ToLower(tiles[i].Name) < strings.ToLower(tiles[j].Name)
	})
	return tiles
}

// ParseTiles reads tiles from serialized catalog HTML. It mirrors the
// in-page extraction, except that computed styles are unavailable so only an
// inline background-image is considered. Relative links and image sources
// resolve against pageURL.
func ParseTiles(rawHTML, pageURL string) ([]models.RawTile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(pageURL)

	var out []models.RawTile
	doc.FindMatcher(tileAnchorMatcher).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		name := EmoteNameFromHref(base, href)
		if name == "" {
			return
		}

		var imageURL string
		if img := a.FindMatcher(imageMatcher).First(); img.Length() > 0 {
			src, _ := img.Attr("src")
			imageURL = resolveURL(base, src)
		} else if style, ok := a.Attr("style"); ok {
			imageURL = BackgroundImageURL(style)
		}

		out = append(out, models.RawTile{Name: name, ImageURL: imageURL})
	})

	return out, nil
}

// EmoteNameFromHref returns the emoteName query parameter of href, or "".
func EmoteNameFromHref(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.Query().Get("emoteName")
}

// resolveURL makes ref absolute against base, like a DOM img.src read.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// BackgroundImageURL returns the first url(...) literal in a CSS value.
func BackgroundImageURL(css string) string {
	m := backgroundURLRe.FindStringSubmatch(css)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
