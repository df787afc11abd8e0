package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/emotedex/models"
)

func TestNormalizeTiles_DedupAndSort(t *testing.T) {
	raw := []models.RawTile{
		{Name: "Zeta", ImageURL: "u1"},
		{Name: "Alpha", ImageURL: "u2"},
		{Name: "Zeta", ImageURL: "u3"},
	}

	tiles := NormalizeTiles(raw)

	require.Len(t, tiles, 2)
	assert.Equal(t, "Alpha", tiles[0].Name)
	assert.Equal(t, "u2", deref(tiles[0].ImageURL))
	assert.Equal(t, "Zeta", tiles[1].Name)
	assert.Equal(t, "u1", deref(tiles[1].ImageURL))
}

func TestNormalizeTiles_CaseInsensitiveOrderCaseSensitiveIdentity(t *testing.T) {
	raw := []models.RawTile{
		{Name: "beta"},
		{Name: "Alpha"},
		{Name: "  "},
		{Name: "Beta", ImageURL: "b"},
		{Name: " alpha "},
	}

	tiles := NormalizeTiles(raw)

	names := make([]string, len(tiles))
	for i, tl := range tiles {
		names[i] = tl.Name
	}
	assert.Equal(t, []string{"Alpha", "alpha", "beta", "Beta"}, names)
	assert.Nil(t, tiles[0].ImageURL, "missing image is null, not an error")
}

func TestNormalizeTiles_Empty(t *testing.T) {
	assert.Empty(t, NormalizeTiles(nil))
}

func TestParseTiles(t *testing.T) {
	page := `<html><body>
  <a href="/emotes?emoteName=Golden%20Goat"><img src="https://cdn.example/goat.png"></a>
  <a href="?emoteName=Frog" style="background-image: url('https://cdn.example/frog.png')"></a>
  <a href="/emotes?emoteName=">empty</a>
  <a href="/emotes?other=1&emoteName=Bare">Bare</a>
  <a href="/emotes?emoteName=Owl"><img src="/img/owl.png"></a>
  <a href="/about">about</a>
</body></html>`

	raw, err := ParseTiles(page, "https://pixelbypixel.studio/emotes")
	require.NoError(t, err)

	assert.Equal(t, []models.RawTile{
		{Name: "Golden Goat", ImageURL: "https://cdn.example/goat.png"},
		{Name: "Frog", ImageURL: "https://cdn.example/frog.png"},
		{Name: "Bare", ImageURL: ""},
		{Name: "Owl", ImageURL: "https://pixelbypixel.studio/img/owl.png"},
	}, raw)
}

func TestBackgroundImageURL(t *testing.T) {
	tests := []struct {
		css  string
		want string
	}{
		{`url("https://a/b.png")`, "https://a/b.png"},
		{`url('x.webp')`, "x.webp"},
		{`url(plain.gif)`, "plain.gif"},
		{`none`, ""},
		{``, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BackgroundImageURL(tt.css), tt.css)
	}
}

func TestFlattenText_SkipsInvisibleAndSplitsLines(t *testing.T) {
	page := "<html><head><style>.a{}</style></head><body><p>  one  </p><script>two()</script><div>three\n\n four </div><noscript>five</noscript></body></html>"

	rec := ExtractDetail("one", page, testBaseURL)
	// source sits two lines below the name: one, three, four
	assert.Equal(t, "four", deref(rec.Source))
}
