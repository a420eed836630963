package storage

import (
	"testing"
	"time"

	"github.com/nvollmar/cardwatch/models"
)

func newTestStore(t *testing.T) *CSVStore {
	t.Helper()
	s, err := NewCSVStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	return s
}

func TestSyncAssignsStableIDs(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Sync([]models.Holding{
		{Link: "https://example.com/a", Name: "Card A", Quantity: 1},
		{Link: "https://example.com/b", Name: "Card B", Quantity: 4},
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if first[0].ID != 1 || first[1].ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", first[0].ID, first[1].ID)
	}

	// Re-syncing the same link keeps its id; a new link gets the next one.
	second, err := s.Sync([]models.Holding{
		{Link: "https://example.com/b", Name: "Card B renamed", Quantity: 4},
		{Link: "https://example.com/c", Name: "Card C", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if second[0].ID != 2 {
		t.Fatalf("existing link id = %d, want 2", second[0].ID)
	}
	if second[1].ID != 3 {
		t.Fatalf("new link id = %d, want 3", second[1].ID)
	}

	items, err := s.Items()
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Name != "Card B renamed" {
		t.Fatalf("name not updated: %q", items[0].Name)
	}
}

func TestSyncRoundTripsPurchasePrice(t *testing.T) {
	s := newTestStore(t)
	price := 12.34
	if _, err := s.Sync([]models.Holding{
		{Link: "https://example.com/a", Name: "Card A", Quantity: 1, PurchasePrice: &price},
		{Link: "https://example.com/b", Name: "Card B", Quantity: 1},
	}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	items, err := s.Items()
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if items[0].PurchasePrice == nil || *items[0].PurchasePrice != 12.34 {
		t.Fatalf("purchase price = %v, want 12.34", items[0].PurchasePrice)
	}
	if items[1].PurchasePrice != nil {
		t.Fatal("absent purchase price should stay absent")
	}
}

func TestAppendSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)

	avail, from := 125, 14.50
	lo, hi := 11.75, 13.0
	snap := &models.PriceSnapshot{
		Status:         models.StatusSuccess,
		AvailableItems: &avail,
		FromPrice:      &from,
		SellerPrices:   []float64{11.75, 12.5, 13},
		MinSellerPrice: &lo,
		MaxSellerPrice: &hi,
		SellerCount:    3,
		ScrapedAt:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Method:         models.MethodFullRender,
	}
	if err := s.AppendSnapshot(7, "Card A", snap); err != nil {
		t.Fatalf("AppendSnapshot: %v", err)
	}

	rec, ok, err := s.Latest(7)
	if err != nil || !ok {
		t.Fatalf("Latest = %v, %v", ok, err)
	}
	got := rec.Snapshot
	if got.Status != models.StatusSuccess || got.Method != models.MethodFullRender {
		t.Fatalf("status/method = %q/%q", got.Status, got.Method)
	}
	if got.AvailableItems == nil || *got.AvailableItems != 125 {
		t.Fatalf("available = %v", got.AvailableItems)
	}
	if got.FromPrice == nil || *got.FromPrice != 14.5 {
		t.Fatalf("from = %v", got.FromPrice)
	}
	if len(got.SellerPrices) != 3 || got.SellerPrices[0] != 11.75 {
		t.Fatalf("seller prices = %v", got.SellerPrices)
	}
	// Absent fields must come back absent, not zero.
	if got.PriceTrend != nil || got.Avg30Days != nil {
		t.Fatal("absent fields resurrected as values")
	}
	if !got.ScrapedAt.Equal(snap.ScrapedAt) {
		t.Fatalf("scraped_at = %v, want %v", got.ScrapedAt, snap.ScrapedAt)
	}
}

func TestAppendFailureSnapshot(t *testing.T) {
	s := newTestStore(t)

	snap := models.NewFailureSnapshot("HTTP 404", models.MethodFullRender)
	if err := s.AppendSnapshot(1, "Card A", snap); err != nil {
		t.Fatalf("AppendSnapshot: %v", err)
	}

	rec, ok, err := s.Latest(1)
	if err != nil || !ok {
		t.Fatalf("Latest = %v, %v", ok, err)
	}
	if rec.Snapshot.Status != models.StatusFailure || rec.Snapshot.Error != "HTTP 404" {
		t.Fatalf("failure row = %+v", rec.Snapshot)
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		from := float64(10 + i)
		snap := &models.PriceSnapshot{
			Status:    models.StatusSuccess,
			FromPrice: &from,
			ScrapedAt: time.Now().UTC(),
			Method:    models.MethodFullRender,
		}
		if err := s.AppendSnapshot(1, "Card A", snap); err != nil {
			t.Fatalf("AppendSnapshot: %v", err)
		}
	}

	all, err := s.History(1, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("history = %d rows, want 5", len(all))
	}

	last2, err := s.History(1, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(last2) != 2 || *last2[1].Snapshot.FromPrice != 14 {
		t.Fatalf("limited history = %+v", last2)
	}

	if rec, ok, _ := s.Latest(1); !ok || *rec.Snapshot.FromPrice != 14 {
		t.Fatalf("latest = %+v", rec)
	}
}
