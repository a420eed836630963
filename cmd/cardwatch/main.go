package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nvollmar/cardwatch/config"
	"github.com/nvollmar/cardwatch/fingerprint"
	"github.com/nvollmar/cardwatch/scraper"
	"github.com/nvollmar/cardwatch/storage"
	"github.com/nvollmar/cardwatch/tracker"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("cardwatch starting",
		"holdings", cfg.Tracker.HoldingsPath,
		"dataDir", cfg.Storage.DataDir,
		"baseURL", cfg.Scraper.BaseURL,
	)

	// ── 3. Initialise scraper (launches browser) ────────────────────
	gen := fingerprint.NewGenerator(rand.NewSource(time.Now().UnixNano()))
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, gen)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	fetcher := scraper.NewDirectFetcher(cfg.Scraper, gen)
	coordinator := scraper.NewCoordinator(sc, fetcher)

	// ── 4. Initialise storage ───────────────────────────────────────
	store, err := storage.NewCSVStore(cfg.Storage.DataDir)
	if err != nil {
		slog.Error("failed to initialise storage", "error", err)
		os.Exit(1)
	}

	// ── 5. Metrics endpoint (optional) ──────────────────────────────
	metrics := tracker.NewMetrics()
	sc.OnChallenge(func(string) { metrics.IncChallenge() })
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		go func() {
			slog.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	// ── 6. Run the tracking pass ────────────────────────────────────
	tr := tracker.New(coordinator, store, store, cfg.Tracker, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tr.TrackAll(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("tracking run interrupted")
		} else {
			slog.Error("tracking run failed", "error", err)
			sc.Close()
			os.Exit(1)
		}
	}

	// ── 7. Portfolio summary ────────────────────────────────────────
	summary, err := tr.Summary()
	if err != nil {
		slog.Warn("could not build portfolio summary", "error", err)
	} else {
		for _, item := range summary.Items {
			attrs := []any{"name", item.Name, "quantity", item.Quantity}
			if item.PurchasePrice != nil {
				attrs = append(attrs, "purchasePrice", *item.PurchasePrice)
			}
			if item.CurrentPrice != nil {
				attrs = append(attrs, "currentPrice", *item.CurrentPrice)
			}
			if item.LastUpdated != nil {
				attrs = append(attrs, "lastUpdated", item.LastUpdated.Format(time.RFC3339))
			}
			slog.Info("portfolio item", attrs...)
		}
		slog.Info("portfolio summary", "items", summary.TotalItems)
	}

	slog.Info("cardwatch stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
