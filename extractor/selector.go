package extractor

import "github.com/andybalholm/cascadia"

// Selectors are compiled once; the catalog markup is parsed on every render.
const (
	// TileAnchorSelector matches catalog anchors whose link carries an emote name.
	TileAnchorSelector = `a[href*="emoteName="]`

	// ChannelLinkSelector matches links to a streaming-platform channel.
	ChannelLinkSelector = `a[href*="twitch.tv/"]`
)

var (
	tileAnchorMatcher  = cascadia.MustCompile(TileAnchorSelector)
	channelLinkMatcher = cascadia.MustCompile(ChannelLinkSelector)
	imageMatcher       = cascadia.MustCompile("img")
)
