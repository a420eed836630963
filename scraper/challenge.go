package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HasChallengeIndicators reports whether the markup reads like a
// bot-mitigation interstitial. Matching runs against the page's visible
// text (tags stripped), so indicator words buried in unrelated script or
// comment content do not false-positive; the phrase list itself is
// configuration.
func HasChallengeIndicators(markup string, phrases []string) bool {
	text := markup
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup)); err == nil {
		doc.Find("script, style, noscript").Remove()
		text = doc.Text()
	}

	lower := strings.ToLower(text)
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
