package scraper

import (
	"testing"

	"github.com/nvollmar/cardwatch/config"
)

func TestHasChallengeIndicators(t *testing.T) {
	phrases := config.DefaultChallengeIndicators

	tests := []struct {
		name   string
		markup string
		want   bool
	}{
		{
			name:   "cloudflare interstitial",
			markup: `<html><head><title>Just a moment...</title></head><body><h1>Checking your browser before accessing</h1><p>Ray ID: 8a2b3c</p></body></html>`,
			want:   true,
		},
		{
			name:   "ddos protection page",
			markup: `<html><body><p>DDoS protection by example</p></body></html>`,
			want:   true,
		},
		{
			name:   "case insensitive",
			markup: `<html><body>SECURITY CHECK in progress</body></html>`,
			want:   true,
		},
		{
			name:   "ordinary product page",
			markup: `<html><body><dt>Available items</dt><dd>125</dd><dt>From</dt><dd>14,50 €</dd></body></html>`,
			want:   false,
		},
		{
			name:   "indicator only inside script is ignored",
			markup: `<html><body><script>var x = "checking your browser";</script><p>card listing</p></body></html>`,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasChallengeIndicators(tt.markup, phrases); got != tt.want {
				t.Fatalf("HasChallengeIndicators = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasChallengeIndicatorsEmptyList(t *testing.T) {
	if HasChallengeIndicators("<html><body>challenge</body></html>", nil) {
		t.Fatal("no phrases configured should never match")
	}
}

func TestIsMitigationStatus(t *testing.T) {
	for _, status := range []int{403, 429, 503} {
		if !isMitigationStatus(status) {
			t.Fatalf("status %d should count as mitigation", status)
		}
	}
	for _, status := range []int{200, 404, 500} {
		if isMitigationStatus(status) {
			t.Fatalf("status %d should not count as mitigation", status)
		}
	}
}
