package tracker

import (
	"os"
	"path/filepath"
	"testing"
)

func writeHoldingsCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write holdings: %v", err)
	}
	return path
}

func TestLoadHoldings(t *testing.T) {
	path := writeHoldingsCSV(t,
		"Link,Name,Date,Quantity,Price\n"+
			"https://example.com/a,Card A,2024-01-15,2,10.50\n"+
			"https://example.com/b,Card B,,,\n")

	holdings, err := LoadHoldings(path)
	if err != nil {
		t.Fatalf("LoadHoldings: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("holdings = %d, want 2", len(holdings))
	}

	a := holdings[0]
	if a.Link != "https://example.com/a" || a.Name != "Card A" {
		t.Fatalf("first holding = %+v", a)
	}
	if a.Quantity != 2 || a.PurchaseDate != "2024-01-15" {
		t.Fatalf("first holding meta = %+v", a)
	}
	if a.PurchasePrice == nil || *a.PurchasePrice != 10.50 {
		t.Fatalf("purchase price = %v", a.PurchasePrice)
	}

	b := holdings[1]
	if b.Quantity != 1 {
		t.Fatalf("default quantity = %d, want 1", b.Quantity)
	}
	if b.PurchasePrice != nil {
		t.Fatal("absent price should stay absent")
	}
}

func TestLoadHoldingsBOMHeader(t *testing.T) {
	path := writeHoldingsCSV(t,
		"\uFEFFLink,Name,Date,Quantity,Price\n"+
			"https://example.com/a,Card A,,1,\n")

	holdings, err := LoadHoldings(path)
	if err != nil {
		t.Fatalf("LoadHoldings: %v", err)
	}
	if len(holdings) != 1 || holdings[0].Link != "https://example.com/a" {
		t.Fatalf("holdings = %+v", holdings)
	}
}

func TestLoadHoldingsSkipsIncompleteRows(t *testing.T) {
	path := writeHoldingsCSV(t,
		"Link,Name,Date,Quantity,Price\n"+
			",No Link,,1,\n"+
			"https://example.com/nameless,,,1,\n"+
			"https://example.com/ok,Card OK,,1,\n")

	holdings, err := LoadHoldings(path)
	if err != nil {
		t.Fatalf("LoadHoldings: %v", err)
	}
	if len(holdings) != 1 || holdings[0].Name != "Card OK" {
		t.Fatalf("holdings = %+v", holdings)
	}
}

func TestLoadHoldingsMissingFile(t *testing.T) {
	if _, err := LoadHoldings(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
