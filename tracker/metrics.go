package tracker

import (
	"time"

	"github.com/nvollmar/cardwatch/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the tracking loop.
type Metrics struct {
	Registry        *prometheus.Registry
	SnapshotsTotal  *prometheus.CounterVec
	FailuresTotal   *prometheus.CounterVec
	ScrapeDuration  prometheus.Histogram
	FallbacksTotal  prometheus.Counter
	ChallengesTotal prometheus.Counter
	ItemsPerRun     prometheus.Gauge
	PersistFailures prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	snapshots := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardwatch_snapshots_total",
			Help: "Snapshots recorded, by status and fetch method.",
		},
		[]string{"status", "method"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardwatch_failures_total",
			Help: "Failed attempts, by failure reason.",
		},
		[]string{"reason"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardwatch_scrape_duration_seconds",
			Help:    "Wall time of one scrape attempt including fallback.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)
	fallbacks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardwatch_fallbacks_total",
			Help: "Attempts that resolved via the direct-fetch fallback.",
		},
	)
	challenges := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardwatch_challenges_total",
			Help: "Bot-mitigation responses detected during navigation.",
		},
	)
	items := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardwatch_items_per_run",
			Help: "Holdings processed in the current run.",
		},
	)
	persistFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardwatch_persist_failures_total",
			Help: "Snapshots that could not be written to the history store.",
		},
	)

	registry.MustRegister(snapshots, failures, duration, fallbacks, challenges, items, persistFailures)

	return &Metrics{
		Registry:        registry,
		SnapshotsTotal:  snapshots,
		FailuresTotal:   failures,
		ScrapeDuration:  duration,
		FallbacksTotal:  fallbacks,
		ChallengesTotal: challenges,
		ItemsPerRun:     items,
		PersistFailures: persistFailures,
	}
}

// ObserveAttempt records the outcome and duration of one scrape attempt.
func (m *Metrics) ObserveAttempt(snap *models.PriceSnapshot, d time.Duration) {
	if m == nil {
		return
	}
	m.SnapshotsTotal.WithLabelValues(string(snap.Status), string(snap.Method)).Inc()
	m.ScrapeDuration.Observe(d.Seconds())
	if snap.Status == models.StatusFailure {
		reason := snap.ErrorCode
		if reason == "" {
			reason = "unknown"
		}
		m.FailuresTotal.WithLabelValues(reason).Inc()
	}
	if snap.Method == models.MethodDirectFetch {
		m.FallbacksTotal.Inc()
	}
}

// IncChallenge counts one detected bot-mitigation response.
func (m *Metrics) IncChallenge() {
	if m == nil {
		return
	}
	m.ChallengesTotal.Inc()
}

// IncPersistFailure counts a failed history write.
func (m *Metrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// SetItems records the run size.
func (m *Metrics) SetItems(n int) {
	if m == nil {
		return
	}
	m.ItemsPerRun.Set(float64(n))
}
