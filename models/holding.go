package models

import "time"

// Holding is one tracked item: a marketplace URL plus purchase metadata.
type Holding struct {
	ID            int
	Link          string
	Name          string
	PurchaseDate  string
	Quantity      int
	PurchasePrice *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ItemSummary is one row of the portfolio summary: the holding joined with
// its latest recorded price, if any.
type ItemSummary struct {
	Name          string
	Quantity      int
	PurchasePrice *float64
	CurrentPrice  *float64
	LastUpdated   *time.Time
}

// PortfolioSummary aggregates the latest known state of all holdings.
type PortfolioSummary struct {
	TotalItems int
	Items      []ItemSummary
}
