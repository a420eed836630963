package tracker

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nvollmar/cardwatch/models"
)

func TestObserveAttemptCountsFailureReasons(t *testing.T) {
	m := NewMetrics()

	snap := models.NewFailureSnapshot("HTTP 404", models.MethodFullRender)
	snap.ErrorCode = models.ErrCodeNavigation
	m.ObserveAttempt(snap, time.Second)
	m.ObserveAttempt(snap, time.Second)

	noCode := models.NewFailureSnapshot("boom", models.MethodFullRender)
	m.ObserveAttempt(noCode, time.Second)

	ok := &models.PriceSnapshot{Status: models.StatusSuccess, Method: models.MethodFullRender}
	m.ObserveAttempt(ok, time.Second)

	if got := testutil.ToFloat64(m.FailuresTotal.WithLabelValues(models.ErrCodeNavigation)); got != 2 {
		t.Fatalf("navigation failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FailuresTotal.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("unknown-reason failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SnapshotsTotal.WithLabelValues("success", "full_render")); got != 1 {
		t.Fatalf("success snapshots = %v, want 1", got)
	}
}

func TestIncChallenge(t *testing.T) {
	m := NewMetrics()
	m.IncChallenge()
	m.IncChallenge()
	if got := testutil.ToFloat64(m.ChallengesTotal); got != 2 {
		t.Fatalf("challenges = %v, want 2", got)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.ObserveAttempt(models.NewFailureSnapshot("x", models.MethodFullRender), time.Second)
	m.IncChallenge()
	m.IncPersistFailure()
	m.SetItems(3)
}
