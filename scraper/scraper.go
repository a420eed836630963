// Package scraper drives the marketplace price scrape: a browser-rendered
// navigation sequence that resembles organic browsing, challenge-page
// detection with a bounded retry, and a direct-fetch fallback for the
// forbidden case.
package scraper

import (
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/nvollmar/cardwatch/config"
	"github.com/nvollmar/cardwatch/fingerprint"
	"github.com/nvollmar/cardwatch/models"
)

// Scraper manages the shared browser process. Each scrape attempt gets its
// own isolated browsing context on top of it; the process itself is reused
// across attempts.
type Scraper struct {
	browser    *rod.Browser
	browserCfg config.BrowserConfig
	cfg        config.ScraperConfig
	gen        *fingerprint.Generator
	memory      *challengeMemory
	rnd         *rand.Rand
	sleep       func(time.Duration)
	onChallenge func(host string)
}

// NewScraper launches a headless browser with automation-masking flags.
func NewScraper(browserCfg config.BrowserConfig, cfg config.ScraperConfig, gen *fingerprint.Generator) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowser, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowser, "failed to connect to browser", err)
	}

	return &Scraper{
		browser:    browser,
		browserCfg: browserCfg,
		cfg:        cfg,
		gen:        gen,
		memory:     newChallengeMemory(cfg.ChallengeMemoryTTL),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      time.Sleep,
	}, nil
}

// Close kills the browser process. Call on shutdown to prevent zombie
// Chrome processes.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}

// OnChallenge registers an observer called whenever a host serves a
// bot-mitigation response. Set before the first scrape; not synchronized.
func (s *Scraper) OnChallenge(fn func(host string)) {
	s.onChallenge = fn
}

// recordChallenge marks a host as recently challenged, widening its future
// step delays, and notifies the observer hook.
func (s *Scraper) recordChallenge(host string) {
	s.memory.Record(host)
	if s.onChallenge != nil {
		s.onChallenge(host)
	}
}

// stepDelay pauses between navigation hops for a randomized interval. The
// range doubles in constrained execution environments and for hosts that
// recently served a challenge.
func (s *Scraper) stepDelay(host string) {
	lo, hi := s.cfg.StepDelayMin, s.cfg.StepDelayMax
	if s.cfg.ExtendedDelays || s.memory.Recent(host) {
		lo, hi = lo*2, hi*2
	}
	s.sleep(randomDuration(s.rnd, lo, hi))
}

func randomDuration(rnd *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rnd.Int63n(int64(hi-lo)))
}

// categoryURL derives the category hop from the target URL. Two known
// categories, selected by a substring test on the path.
func (s *Scraper) categoryURL(targetURL string) string {
	base := strings.TrimSuffix(s.cfg.BaseURL, "/")
	if strings.Contains(targetURL, "/Magic/") {
		return base + "/en/Magic"
	}
	return base + "/en/Pokemon"
}
