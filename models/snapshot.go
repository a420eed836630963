package models

import "time"

// Status marks whether a scrape attempt produced usable data.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Method records which fetch path produced a snapshot.
type Method string

const (
	// MethodFullRender means the page was rendered in a real browser.
	MethodFullRender Method = "full_render"
	// MethodDirectFetch means the pre-render markup was fetched over
	// plain HTTP. Only a subset of fields is available on this path.
	MethodDirectFetch Method = "direct_fetch"
)

// PriceSnapshot is the result of one scrape attempt for one item.
// Optional numeric fields are nil when the page did not yield them;
// they are never defaulted to zero. A snapshot is immutable after
// construction.
type PriceSnapshot struct {
	Status         Status
	AvailableItems *int
	FromPrice      *float64
	PriceTrend     *float64
	Avg1Day        *float64
	Avg7Days       *float64
	Avg30Days      *float64

	// SellerPrices is sorted ascending, deduplicated, and capped at 50
	// entries, each within [10, 10000).
	SellerPrices   []float64
	MinSellerPrice *float64
	MaxSellerPrice *float64
	SellerCount    int

	// Error is populated iff Status == StatusFailure. ErrorCode carries
	// the machine-readable failure class for the same attempts; it is
	// observational (metrics, logs) and not persisted.
	Error     string
	ErrorCode string

	ScrapedAt time.Time
	Method    Method
}

// NewFailureSnapshot builds the failure-shaped snapshot every attempt-level
// error resolves to.
func NewFailureSnapshot(errDetail string, method Method) *PriceSnapshot {
	return &PriceSnapshot{
		Status:    StatusFailure,
		Error:     errDetail,
		ScrapedAt: time.Now().UTC(),
		Method:    method,
	}
}
