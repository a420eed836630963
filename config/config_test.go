package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Scraper.BaseURL != "https://www.cardmarket.com" {
		t.Fatalf("base URL = %q", cfg.Scraper.BaseURL)
	}
	if cfg.Scraper.StepDelayMin != time.Second || cfg.Scraper.StepDelayMax != 2*time.Second {
		t.Fatalf("step delay bounds = %v..%v", cfg.Scraper.StepDelayMin, cfg.Scraper.StepDelayMax)
	}
	if len(cfg.Scraper.ChallengeIndicators) == 0 {
		t.Fatal("challenge indicators empty")
	}
	if cfg.Tracker.PacingMin != 3*time.Second || cfg.Tracker.PacingMax != 6*time.Second {
		t.Fatalf("pacing bounds = %v..%v", cfg.Tracker.PacingMin, cfg.Tracker.PacingMax)
	}
	if cfg.Storage.DataDir != "data" {
		t.Fatalf("data dir = %q", cfg.Storage.DataDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CARDWATCH_BASE_URL", "http://localhost:9999")
	t.Setenv("CARDWATCH_STEP_DELAY_MIN", "10ms")
	t.Setenv("CARDWATCH_CHALLENGE_INDICATORS", "foo, bar")
	t.Setenv("CARDWATCH_RPM", "2.5")

	cfg := Load()

	if cfg.Scraper.BaseURL != "http://localhost:9999" {
		t.Fatalf("base URL = %q", cfg.Scraper.BaseURL)
	}
	if cfg.Scraper.StepDelayMin != 10*time.Millisecond {
		t.Fatalf("step delay min = %v", cfg.Scraper.StepDelayMin)
	}
	if len(cfg.Scraper.ChallengeIndicators) != 2 || cfg.Scraper.ChallengeIndicators[1] != "bar" {
		t.Fatalf("challenge indicators = %v", cfg.Scraper.ChallengeIndicators)
	}
	if cfg.Tracker.RequestsPerMinute != 2.5 {
		t.Fatalf("rpm = %v", cfg.Tracker.RequestsPerMinute)
	}
}

func TestExtendedDelaysFollowsCI(t *testing.T) {
	t.Setenv("CI", "true")
	t.Setenv("CARDWATCH_EXTENDED_DELAYS", "")

	if !Load().Scraper.ExtendedDelays {
		t.Fatal("extended delays should default on under CI")
	}

	t.Setenv("CARDWATCH_EXTENDED_DELAYS", "false")
	if Load().Scraper.ExtendedDelays {
		t.Fatal("explicit override should win over CI detection")
	}
}
