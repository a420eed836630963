// Package tracker orchestrates a tracking run: load holdings, scrape each
// one through the composed render-with-fallback pipeline, persist every
// outcome, and keep the aggregate request rate low.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/nvollmar/cardwatch/config"
	"github.com/nvollmar/cardwatch/models"
	"github.com/nvollmar/cardwatch/storage"
	"golang.org/x/time/rate"
)

// Scraper is the composed scrape-with-fallback operation. It never returns
// an error: every attempt resolves to a snapshot.
type Scraper interface {
	Scrape(ctx context.Context, targetURL string) *models.PriceSnapshot
}

// Tracker sequences scrape attempts across the holdings list. Processing
// is strictly sequential, in list order: concurrent fan-out would both
// raise the aggregate request rate and correlate fingerprints across
// simultaneous sessions.
type Tracker struct {
	scraper   Scraper
	portfolio storage.PortfolioStore
	history   storage.HistoryStore
	cfg       config.TrackerConfig
	metrics   *Metrics
	limiter   *rate.Limiter
	rnd       *rand.Rand
	sleep     func(time.Duration)
}

// New creates a Tracker. metrics may be nil.
func New(scraper Scraper, portfolio storage.PortfolioStore, history storage.HistoryStore, cfg config.TrackerConfig, metrics *Metrics) *Tracker {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	return &Tracker{
		scraper:   scraper,
		portfolio: portfolio,
		history:   history,
		cfg:       cfg,
		metrics:   metrics,
		limiter:   rate.NewLimiter(rate.Limit(rpm/60), 1),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     time.Sleep,
	}
}

// TrackAll runs one full pass over the holdings list. One item's failure
// never aborts the rest: each failure is logged, recorded as a failure
// snapshot, and the loop moves on.
func (t *Tracker) TrackAll(ctx context.Context) error {
	holdings, err := LoadHoldings(t.cfg.HoldingsPath)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		return errors.New("tracker: no holdings to track")
	}

	items, err := t.portfolio.Sync(holdings)
	if err != nil {
		return fmt.Errorf("tracker: sync portfolio: %w", err)
	}
	t.metrics.SetItems(len(items))
	slog.Info("tracking run starting", "items", len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}

		slog.Info("tracking item", "id", item.ID, "name", item.Name)
		start := time.Now()
		snap := t.scraper.Scrape(ctx, item.Link)
		t.metrics.ObserveAttempt(snap, time.Since(start))

		if snap.Status == models.StatusFailure {
			slog.Warn("scrape failed", "id", item.ID, "name", item.Name, "error", snap.Error)
		} else {
			slog.Info("scrape succeeded",
				"id", item.ID,
				"name", item.Name,
				"method", snap.Method,
				"sellers", snap.SellerCount,
			)
		}

		if err := t.history.AppendSnapshot(item.ID, item.Name, snap); err != nil {
			t.metrics.IncPersistFailure()
			slog.Error("failed to persist snapshot", "id", item.ID, "error", err)
		}

		// Pacing between items, regardless of outcome.
		if i < len(items)-1 {
			t.sleep(t.pacingDelay())
		}
	}

	slog.Info("tracking run complete", "items", len(items))
	return nil
}

// Summary joins the holdings with their latest recorded prices.
func (t *Tracker) Summary() (*models.PortfolioSummary, error) {
	items, err := t.portfolio.Items()
	if err != nil {
		return nil, err
	}

	summary := &models.PortfolioSummary{TotalItems: len(items)}
	for _, item := range items {
		row := models.ItemSummary{
			Name:          item.Name,
			Quantity:      item.Quantity,
			PurchasePrice: item.PurchasePrice,
		}
		if rec, ok, err := t.history.Latest(item.ID); err == nil && ok {
			row.CurrentPrice = rec.Snapshot.FromPrice
			ts := rec.Snapshot.ScrapedAt
			row.LastUpdated = &ts
		}
		summary.Items = append(summary.Items, row)
	}
	return summary, nil
}

func (t *Tracker) pacingDelay() time.Duration {
	lo, hi := t.cfg.PacingMin, t.cfg.PacingMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(t.rnd.Int63n(int64(hi-lo)))
}
