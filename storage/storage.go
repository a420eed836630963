// Package storage implements the flat-file persistence behind the tracker:
// a portfolio item snapshot store and an append-only price history, both
// plain CSV so the data stays greppable and diffable.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nvollmar/cardwatch/models"
)

// PortfolioStore is the holdings snapshot the tracker syncs into.
type PortfolioStore interface {
	Sync(holdings []models.Holding) ([]models.Holding, error)
	Items() ([]models.Holding, error)
}

// HistoryStore is the append-only price history the tracker writes to.
type HistoryStore interface {
	AppendSnapshot(itemID int, itemName string, snap *models.PriceSnapshot) error
	Latest(itemID int) (*HistoryRecord, bool, error)
	History(itemID int, limit int) ([]HistoryRecord, error)
}

// HistoryRecord is one persisted scrape outcome keyed by holding identity.
type HistoryRecord struct {
	ItemID   int
	ItemName string
	Snapshot models.PriceSnapshot
}

var portfolioHeader = []string{
	"id", "link", "name", "purchase_date", "quantity", "purchase_price",
	"created_at", "updated_at",
}

var historyHeader = []string{
	"item_id", "item_name", "available_items", "from_price", "price_trend",
	"avg_30_days", "avg_7_days", "avg_1_day", "min_seller_price",
	"max_seller_price", "seller_count", "seller_prices_json",
	"scrape_status", "error_message", "method", "scraped_at",
}

// CSVStore implements PortfolioStore and HistoryStore over two CSV files
// in a data directory.
type CSVStore struct {
	portfolioPath string
	historyPath   string
}

// NewCSVStore creates the data directory and initializes both files with
// headers if they do not exist yet.
func NewCSVStore(dataDir string) (*CSVStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	s := &CSVStore{
		portfolioPath: filepath.Join(dataDir, "portfolio_items.csv"),
		historyPath:   filepath.Join(dataDir, "price_history.csv"),
	}
	if err := initFile(s.portfolioPath, portfolioHeader); err != nil {
		return nil, err
	}
	if err := initFile(s.historyPath, historyHeader); err != nil {
		return nil, err
	}
	return s, nil
}

func initFile(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: init %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("storage: write header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Sync merges the loaded holdings into the portfolio file: known links keep
// their id and created_at, new links get the next sequential id. Returns
// the holdings with ids assigned, in input order.
func (s *CSVStore) Sync(holdings []models.Holding) ([]models.Holding, error) {
	existing, err := s.Items()
	if err != nil {
		return nil, err
	}

	byLink := make(map[string]models.Holding, len(existing))
	nextID := 1
	for _, h := range existing {
		byLink[h.Link] = h
		if h.ID >= nextID {
			nextID = h.ID + 1
		}
	}

	now := time.Now().UTC()
	merged := make([]models.Holding, 0, len(holdings))
	for _, h := range holdings {
		if prev, ok := byLink[h.Link]; ok {
			h.ID = prev.ID
			h.CreatedAt = prev.CreatedAt
		} else {
			h.ID = nextID
			h.CreatedAt = now
			nextID++
		}
		h.UpdatedAt = now
		merged = append(merged, h)
		byLink[h.Link] = h
	}

	f, err := os.Create(s.portfolioPath)
	if err != nil {
		return nil, fmt.Errorf("storage: rewrite portfolio: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(portfolioHeader); err != nil {
		return nil, fmt.Errorf("storage: write header: %w", err)
	}
	for _, h := range merged {
		if err := w.Write(portfolioRow(h)); err != nil {
			return nil, fmt.Errorf("storage: write holding %d: %w", h.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("storage: flush portfolio: %w", err)
	}
	return merged, nil
}

// Items reads all portfolio holdings.
func (s *CSVStore) Items() ([]models.Holding, error) {
	rows, err := readCSV(s.portfolioPath)
	if err != nil {
		return nil, err
	}

	holdings := make([]models.Holding, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(portfolioHeader) {
			continue
		}
		h := models.Holding{
			Link:         row[1],
			Name:         row[2],
			PurchaseDate: row[3],
		}
		h.ID, _ = strconv.Atoi(row[0])
		h.Quantity, _ = strconv.Atoi(row[4])
		if row[5] != "" {
			if p, err := strconv.ParseFloat(row[5], 64); err == nil {
				h.PurchasePrice = &p
			}
		}
		h.CreatedAt, _ = time.Parse(time.RFC3339, row[6])
		h.UpdatedAt, _ = time.Parse(time.RFC3339, row[7])
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// AppendSnapshot appends one scrape outcome to the history file. Absent
// numeric fields are written as empty cells, never zero.
func (s *CSVStore) AppendSnapshot(itemID int, itemName string, snap *models.PriceSnapshot) error {
	sellerJSON, err := json.Marshal(snap.SellerPrices)
	if err != nil {
		return fmt.Errorf("storage: marshal seller prices: %w", err)
	}

	row := []string{
		strconv.Itoa(itemID),
		itemName,
		intCell(snap.AvailableItems),
		floatCell(snap.FromPrice),
		floatCell(snap.PriceTrend),
		floatCell(snap.Avg30Days),
		floatCell(snap.Avg7Days),
		floatCell(snap.Avg1Day),
		floatCell(snap.MinSellerPrice),
		floatCell(snap.MaxSellerPrice),
		strconv.Itoa(snap.SellerCount),
		string(sellerJSON),
		string(snap.Status),
		snap.Error,
		string(snap.Method),
		snap.ScrapedAt.UTC().Format(time.RFC3339),
	}

	f, err := os.OpenFile(s.historyPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage: open history: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("storage: append snapshot: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Latest returns the most recent history record for an item.
func (s *CSVStore) Latest(itemID int) (*HistoryRecord, bool, error) {
	records, err := s.History(itemID, 0)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return &records[len(records)-1], true, nil
}

// History returns an item's records in append order. A limit of 0 means
// all; otherwise the most recent limit records are returned.
func (s *CSVStore) History(itemID int, limit int) ([]HistoryRecord, error) {
	rows, err := readCSV(s.historyPath)
	if err != nil {
		return nil, err
	}

	var records []HistoryRecord
	for _, row := range rows {
		if len(row) < len(historyHeader) {
			continue
		}
		id, _ := strconv.Atoi(row[0])
		if id != itemID {
			continue
		}
		records = append(records, parseHistoryRow(id, row))
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

func parseHistoryRow(id int, row []string) HistoryRecord {
	rec := HistoryRecord{ItemID: id, ItemName: row[1]}
	snap := &rec.Snapshot

	snap.AvailableItems = parseIntCell(row[2])
	snap.FromPrice = parseFloatCell(row[3])
	snap.PriceTrend = parseFloatCell(row[4])
	snap.Avg30Days = parseFloatCell(row[5])
	snap.Avg7Days = parseFloatCell(row[6])
	snap.Avg1Day = parseFloatCell(row[7])
	snap.MinSellerPrice = parseFloatCell(row[8])
	snap.MaxSellerPrice = parseFloatCell(row[9])
	snap.SellerCount, _ = strconv.Atoi(row[10])
	_ = json.Unmarshal([]byte(row[11]), &snap.SellerPrices)
	snap.Status = models.Status(row[12])
	snap.Error = row[13]
	snap.Method = models.Method(row[14])
	snap.ScrapedAt, _ = time.Parse(time.RFC3339, row[15])
	return rec
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", filepath.Base(path), err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func portfolioRow(h models.Holding) []string {
	return []string{
		strconv.Itoa(h.ID),
		h.Link,
		h.Name,
		h.PurchaseDate,
		strconv.Itoa(h.Quantity),
		floatCell(h.PurchasePrice),
		h.CreatedAt.UTC().Format(time.RFC3339),
		h.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseIntCell(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloatCell(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
