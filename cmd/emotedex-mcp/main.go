package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/emotedex/models"
)

func main() {
	apiURL := os.Getenv("EMOTEDEX_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}

	// Renders take up to a minute; list + detail can chain two.
	client := &http.Client{Timeout: 150 * time.Second}

	s := server.NewMCPServer(
		"emotedex",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_emotes",
		mcp.WithDescription("Search the Pixel by Pixel Studio emote catalog. Every whitespace-separated term must appear in the emote name; case and punctuation are ignored."),
		mcp.WithString("query",
			mcp.Description("Search terms, e.g. 'golden goat'. Empty lists every emote."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of emotes to return (default: 50, max: 2000)"),
		),
	)
	s.AddTool(searchTool, handleSearch(client, apiURL))

	detailTool := mcp.NewTool("get_emote",
		mcp.WithDescription("Get the detail record of one emote: channel, source, tier and expiration."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Exact emote name as returned by search_emotes"),
		),
	)
	s.AddTool(detailTool, handleDetail(client, apiURL))

	refreshTool := mcp.NewTool("refresh_emotes",
		mcp.WithDescription("Re-render the emote catalog now instead of waiting for the cache to expire."),
	)
	s.AddTool(refreshTool, handleRefresh(client, apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiCall sends a request to the emotedex API and decodes a 200 response
// into out. Non-200 responses are returned as errors carrying the detail.
func apiCall(ctx context.Context, client *http.Client, method, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Detail != "" {
			return fmt.Errorf("[%d] %s", resp.StatusCode, e.Detail)
		}
		return fmt.Errorf("[%d] %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func handleSearch(client *http.Client, apiURL string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")
		limit := request.GetInt("limit", 50)

		params := url.Values{}
		params.Set("q", query)
		params.Set("limit", strconv.Itoa(limit))

		var resp models.SearchResponse
		if err := apiCall(ctx, client, http.MethodGet, apiURL+"/api/emotes?"+params.Encode(), &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatSearch(query, resp)), nil
	}
}

func handleDetail(client *http.Client, apiURL string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil || strings.TrimSpace(name) == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		var rec models.DetailRecord
		if err := apiCall(ctx, client, http.MethodGet, apiURL+"/api/emotes/"+url.PathEscape(name), &rec); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatDetail(rec)), nil
	}
}

func handleRefresh(client *http.Client, apiURL string) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp models.RefreshResponse
		if err := apiCall(ctx, client, http.MethodPost, apiURL+"/api/refresh", &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Catalog refreshed: %d emotes (updated %s)",
			resp.Count, formatEpoch(resp.UpdatedAt))), nil
	}
}

func formatSearch(query string, resp models.SearchResponse) string {
	var b strings.Builder
	if query == "" {
		fmt.Fprintf(&b, "%d emotes", resp.Count)
	} else {
		fmt.Fprintf(&b, "%d emotes matching %q", resp.Count, query)
	}
	if len(resp.Items) < resp.Count {
		fmt.Fprintf(&b, " (showing %d)", len(resp.Items))
	}
	fmt.Fprintf(&b, ", catalog updated %s\n", formatEpoch(resp.UpdatedAt))

	for _, t := range resp.Items {
		b.WriteString("- " + t.Name)
		if t.ImageURL != nil {
			b.WriteString(" <" + *t.ImageURL + ">")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatDetail(rec models.DetailRecord) string {
	if rec.NotFound {
		return fmt.Sprintf("Emote %q was not found in the catalog.\nDetails: %s", rec.EmoteName, rec.DetailsURL)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Emote: %s\n", rec.EmoteName)
	writeField(&b, "Channel", rec.Channel)
	writeField(&b, "Channel URL", rec.ChannelURL)
	writeField(&b, "Source", rec.Source)
	writeField(&b, "Tier", rec.Tier)
	writeField(&b, "Expires", rec.Expires)
	writeField(&b, "Image", rec.ImageURL)
	fmt.Fprintf(&b, "Details: %s", rec.DetailsURL)
	return b.String()
}

func writeField(b *strings.Builder, label string, v *string) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, *v)
}

func formatEpoch(sec float64) string {
	if sec == 0 {
		return "never"
	}
	return time.Unix(int64(sec), 0).UTC().Format(time.RFC3339)
}
