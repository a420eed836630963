package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/nvollmar/cardwatch/config"
	"github.com/nvollmar/cardwatch/fingerprint"
	"github.com/nvollmar/cardwatch/models"
	"github.com/nvollmar/cardwatch/parser"
	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
)

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only, so the server never negotiates HTTP/2 (which Go's
// http.Transport cannot frame over a utls connection). Computed once.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// DirectFetcher retrieves the pre-render markup of a target page with a
// single plain request: Chrome TLS fingerprint, bot-protection bypass
// round-tripper, and a freshly randomized header set per request. It is
// the reduced-capability path behind the full-render scrape.
type DirectFetcher struct {
	client *resty.Client
	cfg    config.ScraperConfig
	gen    *fingerprint.Generator
	rnd    *rand.Rand
	sleep  func(time.Duration)
}

// NewDirectFetcher builds the fetcher. The identity generator is shared
// with the render path so both draw from the same pools.
func NewDirectFetcher(cfg config.ScraperConfig, gen *fingerprint.Generator) *DirectFetcher {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("direct: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}

	client := resty.New().SetTimeout(cfg.DirectFetchTimeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(transport)

	return &DirectFetcher{
		client: client,
		cfg:    cfg,
		gen:    gen,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  time.Sleep,
	}
}

// FetchSnapshot performs the one direct request and the reduced
// extraction. A 403 here is terminal: it never triggers further fallback.
func (f *DirectFetcher) FetchSnapshot(ctx context.Context, targetURL string) (*models.PriceSnapshot, error) {
	// Short randomized pre-request delay, half the navigation step range.
	f.sleep(randomDuration(f.rnd, f.cfg.StepDelayMin/2, f.cfg.StepDelayMax/2))

	identity := f.gen.Identity()
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(identity.Headers()).
		Get(targetURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeFallback, "direct fetch failed", err)
	}

	status := resp.StatusCode()
	if status != http.StatusOK {
		return nil, &models.ScrapeError{
			Code:       models.ErrCodeFallback,
			Message:    fmt.Sprintf("HTTP %d", status),
			StatusCode: status,
		}
	}

	body := resp.String()
	if looksLikeShell(body) {
		slog.Debug("direct fetch returned a pre-render shell", "url", targetURL)
	}

	snap, ok := parser.ExtractReduced(body)
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeNoData, "No data extracted", nil)
	}
	return snap, nil
}

// looksLikeShell heuristically detects an unrendered SPA shell: barely any
// visible body text, or a noscript warning demanding JavaScript. Used for
// diagnostics only; extraction is attempted either way.
func looksLikeShell(body string) bool {
	if len(visibleText(body)) < 200 {
		return true
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<noscript") &&
		(strings.Contains(lower, "enable javascript") || strings.Contains(lower, "requires javascript"))
}

// visibleText extracts the text inside <body>, skipping script, style and
// noscript content.
func visibleText(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	var buf bytes.Buffer
	inBody := false
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
