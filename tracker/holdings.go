package tracker

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/nvollmar/cardwatch/models"
)

// LoadHoldings reads the user's holdings CSV. Expected columns: Link, Name,
// Date, Quantity, Price. Spreadsheet exports often carry a UTF-8 BOM on the
// first header cell; it is tolerated. Rows missing a link or name are
// skipped with a warning, not fatal.
func LoadHoldings(path string) ([]models.Holding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("holdings: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("holdings: read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	holdings := make([]models.Holding, 0, len(rows)-1)
	for _, row := range rows[1:] {
		h := models.Holding{
			Link:         cell(row, "Link"),
			Name:         cell(row, "Name"),
			PurchaseDate: cell(row, "Date"),
			Quantity:     1,
		}
		if q := cell(row, "Quantity"); q != "" {
			if n, err := strconv.Atoi(q); err == nil {
				h.Quantity = n
			}
		}
		if p := cell(row, "Price"); p != "" {
			if v, err := strconv.ParseFloat(p, 64); err == nil {
				h.PurchasePrice = &v
			}
		}

		if h.Link == "" || h.Name == "" {
			slog.Warn("skipping holding with missing link or name", "row", row)
			continue
		}
		holdings = append(holdings, h)
	}

	slog.Info("holdings loaded", "path", path, "count", len(holdings))
	return holdings, nil
}
