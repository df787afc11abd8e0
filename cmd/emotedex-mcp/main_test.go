package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/emotedex/models"
)

func TestFormatSearch(t *testing.T) {
	img := "https://cdn.example/goat.png"
	resp := models.SearchResponse{
		Count:     3,
		UpdatedAt: 1700000000,
		Items:     []models.Tile{{Name: "Golden Goat", ImageURL: &img}, {Name: "Golden Frog"}},
	}

	got := formatSearch("golden", resp)

	assert.Equal(t, "3 emotes matching \"golden\" (showing 2), catalog updated 2023-11-14T22:13:20Z\n"+
		"- Golden Goat <https://cdn.example/goat.png>\n"+
		"- Golden Frog\n", got)
}

func TestFormatDetail(t *testing.T) {
	rec := models.DetailRecord{
		EmoteName:  "Golden Goat",
		Channel:    models.StringPtr("SomeChannel"),
		Tier:       models.StringPtr("Tier 3"),
		DetailsURL: "https://pixelbypixel.studio/emotes?emoteName=Golden Goat",
	}

	assert.Equal(t, "Emote: Golden Goat\nChannel: SomeChannel\nTier: Tier 3\n"+
		"Details: https://pixelbypixel.studio/emotes?emoteName=Golden Goat", formatDetail(rec))

	rec.NotFound = true
	assert.Contains(t, formatDetail(rec), "was not found")
}

func TestFormatEpoch(t *testing.T) {
	assert.Equal(t, "never", formatEpoch(0))
}

func TestAPICall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/emotes/Golden Goat":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"emoteName":"Golden Goat","notFound":false}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"detail":"UpstreamEmptyError: parsed 0 emote tiles after rendering"}`))
		}
	}))
	defer srv.Close()

	var rec models.DetailRecord
	err := apiCall(context.Background(), srv.Client(), http.MethodGet, srv.URL+"/api/emotes/Golden%20Goat", &rec)
	require.NoError(t, err)
	assert.Equal(t, "Golden Goat", rec.EmoteName)

	var resp models.SearchResponse
	err = apiCall(context.Background(), srv.Client(), http.MethodGet, srv.URL+"/api/emotes", &resp)
	require.Error(t, err)
	assert.Equal(t, "[502] UpstreamEmptyError: parsed 0 emote tiles after rendering", err.Error())
}
