package scraper

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/nvollmar/cardwatch/config"
	"github.com/nvollmar/cardwatch/models"
)

func TestCategoryURL(t *testing.T) {
	s := &Scraper{cfg: config.ScraperConfig{BaseURL: "https://www.cardmarket.com"}}

	tests := []struct {
		target string
		want   string
	}{
		{"https://www.cardmarket.com/en/Magic/Products/Singles/Alpha/Black-Lotus", "https://www.cardmarket.com/en/Magic"},
		{"https://www.cardmarket.com/en/Pokemon/Products/Singles/Base-Set/Charizard", "https://www.cardmarket.com/en/Pokemon"},
		{"https://www.cardmarket.com/en/Other/Thing", "https://www.cardmarket.com/en/Pokemon"},
	}
	for _, tt := range tests {
		if got := s.categoryURL(tt.target); got != tt.want {
			t.Fatalf("categoryURL(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestRandomDurationBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	lo, hi := time.Second, 2*time.Second

	for i := 0; i < 1000; i++ {
		d := randomDuration(rnd, lo, hi)
		if d < lo || d >= hi {
			t.Fatalf("duration %v outside [%v, %v)", d, lo, hi)
		}
	}

	if d := randomDuration(rnd, time.Second, time.Second); d != time.Second {
		t.Fatalf("degenerate range should return lower bound, got %v", d)
	}
}

func TestStepDelayWidensForChallengedHosts(t *testing.T) {
	var slept []time.Duration
	s := &Scraper{
		cfg: config.ScraperConfig{
			StepDelayMin: 10 * time.Millisecond,
			StepDelayMax: 11 * time.Millisecond,
		},
		memory: newChallengeMemory(time.Hour),
		rnd:    rand.New(rand.NewSource(1)),
		sleep:  func(d time.Duration) { slept = append(slept, d) },
	}

	s.stepDelay("www.example.com")
	s.memory.Record("www.example.com")
	s.stepDelay("www.example.com")

	if len(slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(slept))
	}
	if slept[0] >= 11*time.Millisecond {
		t.Fatalf("baseline delay %v outside range", slept[0])
	}
	if slept[1] < 20*time.Millisecond {
		t.Fatalf("challenged-host delay %v not widened", slept[1])
	}
}

func TestRecordChallengeNotifiesHook(t *testing.T) {
	s := &Scraper{memory: newChallengeMemory(time.Hour)}

	var hosts []string
	s.OnChallenge(func(h string) { hosts = append(hosts, h) })

	s.recordChallenge("www.example.com")

	if !s.memory.Recent("www.example.com") {
		t.Fatal("host not recorded in challenge memory")
	}
	if len(hosts) != 1 || hosts[0] != "www.example.com" {
		t.Fatalf("hook calls = %v", hosts)
	}
}

func TestRecordChallengeWithoutHook(t *testing.T) {
	s := &Scraper{memory: newChallengeMemory(time.Hour)}
	s.recordChallenge("www.example.com") // must not panic
	if !s.memory.Recent("www.example.com") {
		t.Fatal("host not recorded in challenge memory")
	}
}

func TestVetMarkupZeroStatus(t *testing.T) {
	s := &Scraper{cfg: config.ScraperConfig{
		ChallengeIndicators: config.DefaultChallengeIndicators,
	}}
	interstitial := "<html><body><h1>Checking your browser before accessing</h1></body></html>"
	product := "<html><body><dt>Available items</dt><dd>12</dd></body></html>"

	if err := s.vetMarkup(0, interstitial); err == nil {
		t.Fatal("interstitial markup with unknown status must fail")
	} else {
		var se *models.ScrapeError
		if !errors.As(err, &se) || se.Code != models.ErrCodeChallenge {
			t.Fatalf("error = %v, want challenge code", err)
		}
	}

	if err := s.vetMarkup(0, product); err != nil {
		t.Fatalf("product markup with unknown status rejected: %v", err)
	}
	// A captured status means the switch already classified the response.
	if err := s.vetMarkup(200, interstitial); err != nil {
		t.Fatalf("vet must only apply to the zero-status path: %v", err)
	}
}

func TestHostOf(t *testing.T) {
	if got := hostOf("https://www.cardmarket.com/en/Magic/x"); got != "www.cardmarket.com" {
		t.Fatalf("hostOf = %q", got)
	}
}
