package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Upstream  UpstreamConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxRenders bounds the number of concurrent renders (one incognito
	// context each).
	MaxRenders int // default: 3

	// DefaultProxy is the proxy URL used for all renders.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects go-rod/stealth evasions before every navigation.
	Stealth bool // default: false

	// BlockedResourceTypes lists resource types to block.
	// Images are left alone: tile extraction reads img.currentSrc.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// NavigationTimeout bounds page.Navigate + DOMContentLoaded.
	NavigationTimeout time.Duration // default: 60s

	// SelectorTimeout bounds the wait for the first emote anchor on the catalog.
	SelectorTimeout time.Duration // default: 30s

	// TextWaitTimeout bounds the best-effort wait for a hint text.
	TextWaitTimeout time.Duration // default: 7s
}

// UpstreamConfig describes the catalog site.
type UpstreamConfig struct {
	// BaseURL is the catalog page; detail views are BaseURL?emoteName=<name>.
	BaseURL string // default: "https://pixelbypixel.studio/emotes"
}

// CacheConfig controls the list and detail caches.
type CacheConfig struct {
	// ListMaxAge is the default staleness bound of the tile list.
	ListMaxAge time.Duration // default: 6h

	// DetailMaxAge is the staleness bound of each detail record.
	DetailMaxAge time.Duration // default: 24h
}

// RateLimitConfig controls per-client inbound rate limiting.
type RateLimitConfig struct {
	// Enabled toggles the limiter.
	Enabled bool // default: false

	// RequestsPerSecond is the sustained rate per client IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per client IP.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   // default: true
	Namespace string // default: "emotedex"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("EMOTEDEX_HOST", "127.0.0.1"),
			Port: envIntOr("EMOTEDEX_PORT", 8000),
			Mode: envOr("EMOTEDEX_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:             envBoolOr("EMOTEDEX_HEADLESS", true),
			MaxRenders:           envIntOr("EMOTEDEX_MAX_RENDERS", 3),
			DefaultProxy:         os.Getenv("EMOTEDEX_PROXY"),
			NoSandbox:            envBoolOr("EMOTEDEX_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("EMOTEDEX_BROWSER_BIN"),
			Stealth:              envBoolOr("EMOTEDEX_STEALTH", false),
			BlockedResourceTypes: envSliceOr("EMOTEDEX_BLOCKED_RESOURCES", []string{"Font", "Media"}),
			NavigationTimeout:    envDurationOr("EMOTEDEX_NAV_TIMEOUT", 60*time.Second),
			SelectorTimeout:      envDurationOr("EMOTEDEX_SELECTOR_TIMEOUT", 30*time.Second),
			TextWaitTimeout:      envDurationOr("EMOTEDEX_TEXT_WAIT_TIMEOUT", 7*time.Second),
		},
		Upstream: UpstreamConfig{
			BaseURL: envOr("EMOTEDEX_BASE_URL", "https://pixelbypixel.studio/emotes"),
		},
		Cache: CacheConfig{
			ListMaxAge:   envDurationOr("EMOTEDEX_LIST_MAX_AGE", 6*time.Hour),
			DetailMaxAge: envDurationOr("EMOTEDEX_DETAIL_MAX_AGE", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled:           envBoolOr("EMOTEDEX_RATE_LIMIT", false),
			RequestsPerSecond: envFloatOr("EMOTEDEX_RATE_RPS", 5.0),
			Burst:             envIntOr("EMOTEDEX_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("EMOTEDEX_LOG_LEVEL", "info"),
			Format: envOr("EMOTEDEX_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled:   envBoolOr("EMOTEDEX_METRICS", true),
			Namespace: envOr("EMOTEDEX_METRICS_NAMESPACE", "emotedex"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
