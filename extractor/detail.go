package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/emotedex/models"
)

// The detail view renders, top to bottom: name, channel, source, tier.
// Source and tier are read at these fixed offsets from the name line.
const (
	SourceOffset = 2
	TierOffset   = 3
)

const (
	// ExpiresMarker is the label line preceding the expiration value.
	ExpiresMarker = "Expires:"

	// NotFoundMarker appears when the catalog has no emote by the requested name.
	NotFoundMarker = "Emote not found"
)

// DetailsURL is the catalog detail view for name. The name is appended
// verbatim.
func DetailsURL(baseURL, name string) string {
	return baseURL + "?emoteName=" + name
}

// ExtractDetail reads a DetailRecord for name from a rendered detail page.
//
// This is a positional pattern-match over the flattened text, not a parser:
// fields that cannot be located are left nil. It never fails; unparseable
// HTML yields a record with only EmoteName and DetailsURL set.
func ExtractDetail(name, rawHTML, baseURL string) models.DetailRecord {
	rec := models.DetailRecord{
		EmoteName:  name,
		DetailsURL: DetailsURL(baseURL, name),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rec
	}

	rec.ChannelURL, rec.Channel = findChannel(doc)

	var lines []string
	for _, n := range doc.Nodes {
		lines = append(lines, FlattenText(n)...)
	}
	fillFromLines(&rec, name, lines)

	return rec
}

// fillFromLines applies the name-relative and marker-relative lookups.
func fillFromLines(rec *models.DetailRecord, name string, lines []string) {
	rec.NotFound = strings.Contains(strings.Join(lines, "\n"), NotFoundMarker)

	start := 0
	if i := indexOf(lines, name, 0); i >= 0 {
		start = i
		if i+SourceOffset < len(lines) {
			rec.Source = &lines[i+SourceOffset]
		}
		if i+TierOffset < len(lines) {
			rec.Tier = &lines[i+TierOffset]
		}
	}

	if j := indexOf(lines, ExpiresMarker, start); j >= 0 && j+1 < len(lines) {
		rec.Expires = &lines[j+1]
	}
}

// findChannel returns the first channel link with visible text. If every
// matching link is textless, the first one is used and its label derived
// from the first path segment.
func findChannel(doc *goquery.Document) (href, label *string) {
	var fallback string

	doc.FindMatcher(channelLinkMatcher).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h, ok := a.Attr("href")
		if !ok || h == "" {
			return true
		}
		if text := JoinedText(a.Nodes[0]); text != "" {
			href, label = models.StringPtr(h), models.StringPtr(text)
			return false
		}
		if fallback == "" {
			fallback = h
		}
		return true
	})
	if href != nil || fallback == "" {
		return href, label
	}

	return models.StringPtr(fallback), models.StringPtr(channelFromPath(fallback))
}

func channelFromPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	return strings.SplitN(path, "/", 2)[0]
}

func indexOf(lines []string, s string, from int) int {
	for i := from; i < len(lines); i++ {
		if lines[i] == s {
			return i
		}
	}
	return -1
}
