package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/nvollmar/cardwatch/fingerprint"
	"github.com/nvollmar/cardwatch/models"
	"github.com/ysmood/gson"
)

// session owns one isolated browsing context for one scrape attempt: fresh
// cookies and storage, the attempt's randomized identity, and the masking
// scripts installed before any navigation. It must be closed exactly once.
type session struct {
	browser *rod.Browser // incognito context
	page    *rod.Page
	closed  bool
}

// newSession opens an incognito context and prepares a page with the given
// identity. Stealth and masking scripts are installed here because they only
// take effect for navigations that happen after installation.
func (s *Scraper) newSession(id fingerprint.Identity) (*session, error) {
	incognito, err := s.browser.Incognito()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowser, "failed to open incognito context", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowser, "failed to create page", err)
	}

	sess := &session{browser: incognito, page: page}
	if err := sess.applyIdentity(id); err != nil {
		sess.close()
		return nil, err
	}
	return sess, nil
}

func (se *session) applyIdentity(id fingerprint.Identity) error {
	if err := se.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      id.UserAgent,
		AcceptLanguage: id.AcceptLanguage,
	}); err != nil {
		return models.NewScrapeError(models.ErrCodeBrowser, "failed to set user agent", err)
	}

	if err := se.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             id.ViewportWidth,
		Height:            id.ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return models.NewScrapeError(models.ErrCodeBrowser, "failed to set viewport", err)
	}

	// Declared locale, timezone and geolocation must be consistent with
	// the accept-language the remote site sees. Best-effort.
	if err := (proto.EmulationSetLocaleOverride{Locale: id.Locale}).Call(se.page); err != nil {
		slog.Warn("locale override failed", "error", err)
	}
	if err := (proto.EmulationSetTimezoneOverride{TimezoneID: id.Timezone}).Call(se.page); err != nil {
		slog.Warn("timezone override failed", "error", err)
	}
	lat, lon, acc := id.Latitude, id.Longitude, float64(100)
	if err := (proto.EmulationSetGeolocationOverride{
		Latitude:  &lat,
		Longitude: &lon,
		Accuracy:  &acc,
	}).Call(se.page); err != nil {
		slog.Warn("geolocation override failed", "error", err)
	}

	// Stealth baseline first, then our masking payload on top.
	if _, err := se.page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
	if _, err := se.page.EvalOnNewDocument(fingerprint.MaskingScript); err != nil {
		return models.NewScrapeError(models.ErrCodeBrowser, "failed to install masking payload", err)
	}

	// Some Chromium builds ignore AcceptLanguage on the UA override, so pin
	// it at the network layer as well.
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": id.AcceptLanguage}),
	}.Call(se.page)

	return nil
}

// visit navigates to a URL and waits for network idle. The idle waiter is
// registered before Navigate; registering it after would miss in-flight
// requests and return a false idle.
func (se *session) visit(ctx context.Context, url string, timeout time.Duration) error {
	p := se.page.Context(ctx).Timeout(timeout)
	waitIdle := p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	if err := p.Navigate(url); err != nil {
		return err
	}
	waitIdle()
	return nil
}

// reload performs the single bounded challenge-recovery reload.
func (se *session) reload(ctx context.Context, timeout time.Duration) error {
	return se.page.Context(ctx).Timeout(timeout).Reload()
}

// waitIdle waits for network idle with a bound, tolerating timeout.
func (se *session) waitIdle(timeout time.Duration) {
	p := se.page.Timeout(timeout)
	p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)()
}

// status reads the HTTP status of the most recent navigation from the
// page's performance entries. This needs no CDP event listeners, so it
// never races the navigation itself. Returns 0 when unavailable.
func (se *session) status() int {
	res, err := se.page.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[entries.length - 1].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// content captures the rendered markup.
func (se *session) content() (string, error) {
	return se.page.HTML()
}

// close tears the browsing context down. Safe to call more than once, but
// the teardown itself runs exactly once; failures are logged and never
// propagated past the attempt boundary.
func (se *session) close() {
	if se.closed {
		return
	}
	se.closed = true

	if err := se.page.Close(); err != nil {
		slog.Warn("session teardown: page close failed", "error", err)
	}
	err := proto.TargetDisposeBrowserContext{
		BrowserContextID: se.browser.BrowserContextID,
	}.Call(se.browser)
	if err != nil {
		slog.Warn("session teardown: context dispose failed", "error", err)
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
