package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/courtsched/models"
)

// Session strategies understood by the session provider.
const (
	StrategyLocal       = "local"
	StrategyCDP         = "cdp"
	StrategyBrowserbase = "browserbase"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	Portal    PortalConfig
	Notify    NotifyConfig
	Jobs      JobsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// SessionConfig selects and parameterises how a job obtains its browser.
type SessionConfig struct {
	// Strategy is one of StrategyLocal, StrategyCDP, StrategyBrowserbase.
	// Empty means: cdp when CDPURL is set, local otherwise.
	Strategy string

	// CDPURL is the fallback remote-debugging endpoint for the cdp strategy.
	CDPURL string

	// Headless controls whether a locally launched browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is passed to a locally launched browser.
	Proxy string

	// SlowMotion delays each input action, matching a human pace.
	SlowMotion time.Duration // default: 1s

	// BlockedResourceTypes lists resource types the page never loads.
	// default: none
	BlockedResourceTypes []string

	// BlockTrackers drops requests to known analytics/ad hosts.
	BlockTrackers bool // default: false

	Browserbase BrowserbaseConfig
}

// BrowserbaseConfig holds the remote browser-hosting credentials.
type BrowserbaseConfig struct {
	BaseURL   string // default: "https://api.browserbase.com"
	ProjectID string
	APIKey    string
	Timeout   time.Duration // default: 30s
}

// ResolveStrategy returns the effective strategy for a job. A per-job CDP
// URL always wins.
func (c SessionConfig) ResolveStrategy(jobCDPURL string) string {
	if jobCDPURL != "" {
		return StrategyCDP
	}
	if c.Strategy != "" {
		return c.Strategy
	}
	if c.CDPURL != "" {
		return StrategyCDP
	}
	return StrategyLocal
}

// Validate reports configuration errors that must stop the service before
// any job is accepted.
func (c SessionConfig) Validate() error {
	switch c.ResolveStrategy("") {
	case StrategyLocal:
		return nil
	case StrategyCDP:
		if c.CDPURL == "" {
			return models.NewError(models.ErrCodeConfiguration, "cdp strategy requires COURTSCHED_CDP_URL", nil)
		}
		return nil
	case StrategyBrowserbase:
		return c.Browserbase.Validate()
	default:
		return models.NewError(models.ErrCodeConfiguration, "unknown session strategy "+strconv.Quote(c.Strategy), nil)
	}
}

// Validate reports missing remote-session credentials.
func (c BrowserbaseConfig) Validate() error {
	if c.ProjectID == "" || c.APIKey == "" {
		return models.NewError(models.ErrCodeConfiguration,
			"browserbase strategy requires BROWSERBASE_PROJECT_ID and BROWSERBASE_API_KEY", nil)
	}
	return nil
}

// PortalConfig controls the interaction with the court-scheduling portal.
type PortalConfig struct {
	// URL is the portal home page.
	URL string // default: "https://oficinajudicialvirtual.pjud.cl/home/index.php"

	// NavigationTimeout bounds the initial page load.
	NavigationTimeout time.Duration // default: 60s

	// StepTimeout bounds each wait-and-act step of a lookup.
	StepTimeout time.Duration // default: 30s

	// Humanize injects random pointer moves between steps.
	Humanize bool // default: true

	// ArtifactsDir receives failure screenshots and DOM dumps.
	ArtifactsDir string // default: "artifacts"
}

// NotifyConfig controls the outbound job notification.
type NotifyConfig struct {
	// URL is the single webhook endpoint. Empty disables delivery.
	URL string

	// Secret signs the body with HMAC-SHA256 when non-empty.
	Secret string

	ConnectTimeout time.Duration // default: 10s
	ReadTimeout    time.Duration // default: 30s
	WriteTimeout   time.Duration // default: 30s
	PoolTimeout    time.Duration // default: 10s
}

// JobsConfig controls batch acceptance and the job registry.
type JobsConfig struct {
	// MaxCases caps the number of cases per batch.
	MaxCases int // default: 100

	// Retention is how long finished jobs stay queryable.
	Retention time.Duration // default: 1h

	// DrainTimeout bounds how long shutdown waits for running jobs.
	DrainTimeout time.Duration // default: 2m
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// NewLogger builds the process logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("COURTSCHED_HOST", "0.0.0.0"),
			Port: envIntOr("COURTSCHED_PORT", 8080),
			Mode: envOr("COURTSCHED_MODE", "release"),
		},
		Session: SessionConfig{
			Strategy:             strings.ToLower(os.Getenv("COURTSCHED_SESSION_STRATEGY")),
			CDPURL:               os.Getenv("COURTSCHED_CDP_URL"),
			Headless:             envBoolOr("COURTSCHED_HEADLESS", true),
			NoSandbox:            envBoolOr("COURTSCHED_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("COURTSCHED_BROWSER_BIN"),
			Proxy:                os.Getenv("COURTSCHED_PROXY"),
			SlowMotion:           envDurationOr("COURTSCHED_SLOW_MOTION", time.Second),
			BlockedResourceTypes: envSliceOr("COURTSCHED_BLOCKED_RESOURCES", nil),
			BlockTrackers:        envBoolOr("COURTSCHED_BLOCK_TRACKERS", false),
			Browserbase: BrowserbaseConfig{
				BaseURL:   envOr("BROWSERBASE_BASE_URL", "https://api.browserbase.com"),
				ProjectID: os.Getenv("BROWSERBASE_PROJECT_ID"),
				APIKey:    os.Getenv("BROWSERBASE_API_KEY"),
				Timeout:   envDurationOr("BROWSERBASE_TIMEOUT", 30*time.Second),
			},
		},
		Portal: PortalConfig{
			URL:               envOr("COURTSCHED_PORTAL_URL", "https://oficinajudicialvirtual.pjud.cl/home/index.php"),
			NavigationTimeout: envDurationOr("COURTSCHED_NAV_TIMEOUT", 60*time.Second),
			StepTimeout:       envDurationOr("COURTSCHED_STEP_TIMEOUT", 30*time.Second),
			Humanize:          envBoolOr("COURTSCHED_HUMANIZE", true),
			ArtifactsDir:      envOr("COURTSCHED_ARTIFACTS_DIR", "artifacts"),
		},
		Notify: NotifyConfig{
			URL:            os.Getenv("COURTSCHED_NOTIFY_URL"),
			Secret:         os.Getenv("COURTSCHED_NOTIFY_SECRET"),
			ConnectTimeout: envDurationOr("COURTSCHED_NOTIFY_CONNECT_TIMEOUT", 10*time.Second),
			ReadTimeout:    envDurationOr("COURTSCHED_NOTIFY_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   envDurationOr("COURTSCHED_NOTIFY_WRITE_TIMEOUT", 30*time.Second),
			PoolTimeout:    envDurationOr("COURTSCHED_NOTIFY_POOL_TIMEOUT", 10*time.Second),
		},
		Jobs: JobsConfig{
			MaxCases:     envIntOr("COURTSCHED_MAX_CASES", 100),
			Retention:    envDurationOr("COURTSCHED_JOB_RETENTION", time.Hour),
			DrainTimeout: envDurationOr("COURTSCHED_DRAIN_TIMEOUT", 2*time.Minute),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("COURTSCHED_AUTH_ENABLED", true),
			APIKeys: envSliceOr("COURTSCHED_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("COURTSCHED_RATE_RPS", 1.0),
			Burst:             envIntOr("COURTSCHED_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("COURTSCHED_LOG_LEVEL", "info"),
			Format: envOr("COURTSCHED_LOG_FORMAT", "json"),
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
