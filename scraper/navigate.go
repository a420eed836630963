package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nvollmar/cardwatch/models"
	"github.com/nvollmar/cardwatch/parser"
)

// navState names the states of one scrape attempt.
type navState int

const (
	stateInit navState = iota
	stateAtHome
	stateAtCategory
	stateAtTarget
	stateChallenge
)

func (st navState) String() string {
	switch st {
	case stateInit:
		return "init"
	case stateAtHome:
		return "at_home"
	case stateAtCategory:
		return "at_category"
	case stateAtTarget:
		return "at_target"
	case stateChallenge:
		return "challenge"
	default:
		return "unknown"
	}
}

// RenderSnapshot performs one full-render scrape attempt: fresh identity,
// fresh isolated session, the home → category → target hop sequence, and
// extraction from the rendered markup. The session is torn down on every
// exit path, exactly once.
func (s *Scraper) RenderSnapshot(ctx context.Context, targetURL string) (snap *models.PriceSnapshot, err error) {
	identity := s.gen.Identity()

	sess, err := s.newSession(identity)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	// Rod surfaces some CDP-connection faults as panics; they must resolve
	// to an attempt failure, not escape past the per-item boundary.
	defer func() {
		if r := recover(); r != nil {
			snap, err = nil, models.NewScrapeError(
				models.ErrCodeNavigation,
				fmt.Sprintf("panic during navigation: %v", r),
				nil,
			)
		}
	}()

	markup, err := s.navigate(ctx, sess, targetURL)
	if err != nil {
		return nil, err
	}
	return parser.ExtractSnapshot(markup, models.MethodFullRender), nil
}

// navigate walks the state machine over one attempt and returns the
// rendered target markup.
//
//	Init → AtHome → AtCategory → AtTarget → extracted
//	                               ↘ Challenge → AtTarget (one reload) | failed
func (s *Scraper) navigate(ctx context.Context, sess *session, targetURL string) (string, error) {
	host := hostOf(targetURL)
	state := stateInit

	// Init → AtHome: land on the site root like an organic visit.
	if err := sess.visit(ctx, s.cfg.BaseURL, s.cfg.NavTimeout); err != nil {
		return "", navError(state, err)
	}
	state = stateAtHome
	s.stepDelay(host)

	// AtHome → AtCategory.
	if err := sess.visit(ctx, s.categoryURL(targetURL), s.cfg.NavTimeout); err != nil {
		return "", navError(state, err)
	}
	state = stateAtCategory
	s.stepDelay(host)

	// AtCategory → AtTarget.
	if err := sess.visit(ctx, targetURL, s.cfg.NavTimeout); err != nil {
		return "", navError(state, err)
	}
	status := sess.status()

	switch {
	case status == 0:
		// Status capture unavailable; the markup gets vetted below
		// before extraction treats this as a success.
		slog.Debug("navigation status unavailable", "url", targetURL)
		state = stateAtTarget
	case status == 200:
		state = stateAtTarget
	case isMitigationStatus(status):
		state = stateChallenge
		slog.Info("mitigation response detected", "url", targetURL, "status", status)
		if err := s.resolveChallenge(ctx, sess, status, host); err != nil {
			return "", err
		}
		state = stateAtTarget
	default:
		return "", models.NewHTTPError(status)
	}

	// AtTarget → extracted.
	sess.waitIdle(s.cfg.ChallengeWait)
	s.stepDelay(host)

	markup, err := sess.content()
	if err != nil {
		return "", navError(state, err)
	}
	if err := s.vetMarkup(status, markup); err != nil {
		s.recordChallenge(host)
		return "", err
	}
	return markup, nil
}

// vetMarkup guards the lenient zero-status path: when the navigation status
// could not be captured, markup still showing interstitial phrases must fail
// the attempt rather than parse as an empty snapshot.
func (s *Scraper) vetMarkup(status int, markup string) error {
	if status != 0 {
		return nil
	}
	if HasChallengeIndicators(markup, s.cfg.ChallengeIndicators) {
		return models.NewScrapeError(models.ErrCodeChallenge, "challenge page with unknown status", nil)
	}
	return nil
}

// resolveChallenge applies the bounded wait-and-retry policy for a
// suspected bot-mitigation interstitial: settle, inspect the markup for
// indicator phrases, and perform at most one reload before giving up with
// the original status.
func (s *Scraper) resolveChallenge(ctx context.Context, sess *session, status int, host string) error {
	s.recordChallenge(host)

	sess.waitIdle(s.cfg.ChallengeWait)
	s.sleep(s.cfg.ChallengeSettle)

	markup, err := sess.content()
	if err != nil {
		return models.NewHTTPError(status)
	}

	if !HasChallengeIndicators(markup, s.cfg.ChallengeIndicators) {
		return models.NewHTTPError(status)
	}

	// Indicators present: give the interstitial time to clear itself,
	// then reload exactly once.
	s.sleep(2 * s.cfg.ChallengeSettle)
	if err := sess.reload(ctx, s.cfg.ReloadTimeout); err != nil {
		slog.Warn("challenge reload failed", "error", err)
		return models.NewHTTPError(status)
	}
	sess.waitIdle(s.cfg.ChallengeWait)

	if after := sess.status(); after == 0 || after == 200 {
		slog.Info("challenge cleared after reload", "host", host)
		return nil
	}
	return models.NewHTTPError(status)
}

// isMitigationStatus reports whether a response status signals
// bot-mitigation rather than a plain failure.
func isMitigationStatus(status int) bool {
	return status == 403 || status == 429 || status == 503
}

// navError wraps a navigation failure with the state it happened in.
func navError(state navState, err error) error {
	code := models.ErrCodeNavigation
	if errors.Is(err, context.DeadlineExceeded) {
		code = models.ErrCodeTimeout
	}
	return models.NewScrapeError(code, fmt.Sprintf("navigation failed at %s", state), err)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
