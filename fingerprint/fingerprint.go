// Package fingerprint produces the per-attempt browser identity material:
// a randomized user agent, header set and viewport, fixed realistic
// locale/timezone/geolocation defaults, and the automation-masking script
// installed into the page environment before the first navigation.
package fingerprint

import "math/rand"

// Identity is one attempt's worth of client-identifying signals. It is
// generated fresh before each scrape attempt and discarded afterwards.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	Timezone       string
	Latitude       float64
	Longitude      float64
}

// User agent pool, partitioned by browser/OS family. Current-ish stable
// release strings; revise occasionally as the real distributions move.
var userAgents = []string{
	// Chrome / Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	// Chrome / macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	// Chrome / Linux
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	// Firefox / Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	// Firefox / Linux
	"Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0",
	// Safari / macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9",
	"de-DE,de;q=0.9,en;q=0.8",
	"en-US,en;q=0.9,de;q=0.8",
	"fr-FR,fr;q=0.9,en;q=0.8",
}

// Viewport bounds. Dimensions land on common desktop sizes without being
// byte-identical between attempts.
const (
	viewportWidthMin  = 1280
	viewportWidthMax  = 1920
	viewportHeightMin = 800
	viewportHeightMax = 1080
)

// Generator draws identities from the fixed pools using an injected random
// source, so tests can pin the sequence.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator creates a Generator backed by the given source.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Identity draws one fresh identity. Locale, timezone and geolocation are
// fixed realistic defaults (central Europe, matching the marketplace's
// primary audience); everything else is randomized.
func (g *Generator) Identity() Identity {
	return Identity{
		UserAgent:      userAgents[g.rnd.Intn(len(userAgents))],
		AcceptLanguage: acceptLanguages[g.rnd.Intn(len(acceptLanguages))],
		ViewportWidth:  viewportWidthMin + g.rnd.Intn(viewportWidthMax-viewportWidthMin+1),
		ViewportHeight: viewportHeightMin + g.rnd.Intn(viewportHeightMax-viewportHeightMin+1),
		Locale:         "de-DE",
		Timezone:       "Europe/Berlin",
		Latitude:       52.5200,
		Longitude:      13.4050,
	}
}

// Headers returns the request header set for this identity, used on the
// direct-fetch path where no real browser supplies them.
func (id Identity) Headers() map[string]string {
	return map[string]string{
		"User-Agent":      id.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": id.AcceptLanguage,
		"Cache-Control":   "no-cache",
		"Sec-Fetch-Dest":  "document",
		"Sec-Fetch-Mode":  "navigate",
		"Sec-Fetch-Site":  "none",
		"Sec-Fetch-User":  "?1",
	}
}
