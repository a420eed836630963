package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig
	Scraper ScraperConfig
	Tracker TrackerConfig
	Storage StorageConfig
	Metrics MetricsConfig
	Log     LogConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL for all requests.
	DefaultProxy string
}

// ScraperConfig controls per-attempt scraping behavior.
type ScraperConfig struct {
	// BaseURL is the marketplace site root; the navigation sequence
	// starts here before hopping to the category and target pages.
	BaseURL string // default: "https://www.cardmarket.com"

	// NavTimeout bounds each individual navigation call.
	NavTimeout time.Duration // default: 30s

	// ReloadTimeout bounds the single challenge-recovery reload.
	ReloadTimeout time.Duration // default: 45s

	// ChallengeWait is the network-idle wait bound after a suspected
	// challenge response.
	ChallengeWait time.Duration // default: 15s

	// ChallengeSettle is the fixed pause before inspecting a suspected
	// challenge page, and again before the reload when indicators match.
	ChallengeSettle time.Duration // default: 5s

	// StepDelayMin/Max bound the randomized pause after each navigation
	// hop. The range doubles when ExtendedDelays is set.
	StepDelayMin time.Duration // default: 1s
	StepDelayMax time.Duration // default: 2s

	// ExtendedDelays widens the delay range, for execution environments
	// whose IP ranges draw more bot-mitigation suspicion. Defaults to
	// true when the CI environment variable is set.
	ExtendedDelays bool

	// ChallengeIndicators are the case-insensitive phrases that identify
	// a bot-mitigation interstitial. Empirical; revise as the mitigation
	// vendors change their copy.
	ChallengeIndicators []string

	// ChallengeMemoryTTL is how long a host keeps its widened delay
	// range after serving a challenge.
	ChallengeMemoryTTL time.Duration // default: 30m

	// DirectFetchTimeout bounds the fallback direct request.
	DirectFetchTimeout time.Duration // default: 20s
}

// TrackerConfig controls the tracking loop.
type TrackerConfig struct {
	// HoldingsPath is the holdings CSV to load.
	HoldingsPath string // default: "portfolio.csv"

	// PacingMin/Max bound the randomized pause between items.
	PacingMin time.Duration // default: 3s
	PacingMax time.Duration // default: 6s

	// RequestsPerMinute caps the aggregate request rate across the run,
	// on top of the per-item pacing.
	RequestsPerMinute float64 // default: 10
}

// StorageConfig controls the flat-file stores.
type StorageConfig struct {
	// DataDir holds portfolio_items.csv and price_history.csv.
	DataDir string // default: "data"
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the listener.
	Addr string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// DefaultChallengeIndicators is the built-in phrase list.
var DefaultChallengeIndicators = []string{
	"checking your browser",
	"ddos protection",
	"security check",
	"ray id",
	"challenge",
	"just a moment",
	"verify you are human",
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:     envBoolOr("CARDWATCH_HEADLESS", true),
			NoSandbox:    envBoolOr("CARDWATCH_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("CARDWATCH_BROWSER_BIN"),
			DefaultProxy: os.Getenv("CARDWATCH_PROXY"),
		},
		Scraper: ScraperConfig{
			BaseURL:             envOr("CARDWATCH_BASE_URL", "https://www.cardmarket.com"),
			NavTimeout:          envDurationOr("CARDWATCH_NAV_TIMEOUT", 30*time.Second),
			ReloadTimeout:       envDurationOr("CARDWATCH_RELOAD_TIMEOUT", 45*time.Second),
			ChallengeWait:       envDurationOr("CARDWATCH_CHALLENGE_WAIT", 15*time.Second),
			ChallengeSettle:     envDurationOr("CARDWATCH_CHALLENGE_SETTLE", 5*time.Second),
			StepDelayMin:        envDurationOr("CARDWATCH_STEP_DELAY_MIN", 1*time.Second),
			StepDelayMax:        envDurationOr("CARDWATCH_STEP_DELAY_MAX", 2*time.Second),
			ExtendedDelays:      envBoolOr("CARDWATCH_EXTENDED_DELAYS", os.Getenv("CI") != ""),
			ChallengeIndicators: envSliceOr("CARDWATCH_CHALLENGE_INDICATORS", DefaultChallengeIndicators),
			ChallengeMemoryTTL:  envDurationOr("CARDWATCH_CHALLENGE_MEMORY_TTL", 30*time.Minute),
			DirectFetchTimeout:  envDurationOr("CARDWATCH_DIRECT_TIMEOUT", 20*time.Second),
		},
		Tracker: TrackerConfig{
			HoldingsPath:      envOr("CARDWATCH_HOLDINGS", "portfolio.csv"),
			PacingMin:         envDurationOr("CARDWATCH_PACING_MIN", 3*time.Second),
			PacingMax:         envDurationOr("CARDWATCH_PACING_MAX", 6*time.Second),
			RequestsPerMinute: envFloatOr("CARDWATCH_RPM", 10),
		},
		Storage: StorageConfig{
			DataDir: envOr("CARDWATCH_DATA_DIR", "data"),
		},
		Metrics: MetricsConfig{
			Addr: os.Getenv("CARDWATCH_METRICS_ADDR"),
		},
		Log: LogConfig{
			Level:  envOr("CARDWATCH_LOG_LEVEL", "info"),
			Format: envOr("CARDWATCH_LOG_FORMAT", "text"),
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
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
