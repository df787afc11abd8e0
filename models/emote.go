package models

// Tile is a lightweight catalog entry shown in the grid view.
type Tile struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// RawTile is a name/image pair as read from the rendered catalog, before
// trimming, de-duplication and sorting.
type RawTile struct {
	Name     string
	ImageURL string
}

// DetailRecord is the per-emote record read from the emote's detail render.
// Optional fields are nil when the page did not expose them.
type DetailRecord struct {
	EmoteName  string  `json:"emoteName"`
	Channel    *string `json:"channel"`
	ChannelURL *string `json:"channelUrl"`
	Source     *string `json:"source"`
	Tier       *string `json:"tier"`
	Expires    *string `json:"expires"`
	DetailsURL string  `json:"detailsUrl"`
	NotFound   bool    `json:"notFound"`

	// ImageURL is attached after extraction from the list cache.
	ImageURL *string `json:"imageUrl"`
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
