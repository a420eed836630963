package parser

import (
	"regexp"
	"sort"
	"time"

	"github.com/nvollmar/cardwatch/models"
)

// Seller price plausibility window. Marketplace pages embed unrelated
// numeric-currency strings (shipping thresholds, fee minimums) that must
// not pollute the price distribution.
const (
	minSellerPrice  = 10
	maxSellerPrice  = 10000 // exclusive
	maxSellerPrices = 50
)

// Label-anchored patterns for the single-value fields of a rendered
// product page. Each is optional: no match means the field stays absent.
var (
	reAvailable  = regexp.MustCompile(`Available items</dt><dd[^>]*>([\d,]+)</dd>`)
	reFromPrice  = regexp.MustCompile(`From</dt><dd[^>]*>([\d,]+\.?\d*)\s*€</dd>`)
	rePriceTrend = regexp.MustCompile(`Price Trend</dt><dd[^>]*><span>([\d,]+\.?\d*)\s*€</span></dd>`)
	reAvg30Days  = regexp.MustCompile(`30-days average price</dt><dd[^>]*><span>([\d,]+\.?\d*)\s*€</span></dd>`)
	reAvg7Days   = regexp.MustCompile(`7-days average price</dt><dd[^>]*><span>([\d,]+\.?\d*)\s*€</span></dd>`)
	reAvg1Day    = regexp.MustCompile(`1-day average price</dt><dd[^>]*><span>([\d,]+\.?\d*)\s*€</span></dd>`)

	// reSellerPrice scans the whole document for numeric-with-currency
	// tokens; the plausibility window above filters the noise out.
	reSellerPrice = regexp.MustCompile(`(\d+,?\d*\.?\d*)\s*€`)
)

// ExtractSnapshot runs the full set of field matchers against rendered page
// markup and produces a success snapshot. Fields whose pattern does not
// match, or whose token does not parse, stay absent.
func ExtractSnapshot(markup string, method models.Method) *models.PriceSnapshot {
	snap := &models.PriceSnapshot{
		Status:    models.StatusSuccess,
		ScrapedAt: time.Now().UTC(),
		Method:    method,
	}

	snap.AvailableItems = matchCount(reAvailable, markup)
	snap.FromPrice = matchPrice(reFromPrice, markup)
	snap.PriceTrend = matchPrice(rePriceTrend, markup)
	snap.Avg30Days = matchPrice(reAvg30Days, markup)
	snap.Avg7Days = matchPrice(reAvg7Days, markup)
	snap.Avg1Day = matchPrice(reAvg1Day, markup)

	snap.SellerPrices = SellerPrices(markup)
	snap.SellerCount = len(snap.SellerPrices)
	if snap.SellerCount > 0 {
		lo := snap.SellerPrices[0]
		hi := snap.SellerPrices[snap.SellerCount-1]
		snap.MinSellerPrice = &lo
		snap.MaxSellerPrice = &hi
	}

	return snap
}

// ExtractReduced attempts only the available-item-count and list-price
// fields. Pre-render markup lacks the dynamically populated trend, average
// and seller data, so nothing else is worth matching on the direct-fetch
// path. The second return value reports whether at least one of the two
// fields parsed.
func ExtractReduced(markup string) (*models.PriceSnapshot, bool) {
	snap := &models.PriceSnapshot{
		Status:    models.StatusSuccess,
		ScrapedAt: time.Now().UTC(),
		Method:    models.MethodDirectFetch,
	}
	snap.AvailableItems = matchCount(reAvailable, markup)
	snap.FromPrice = matchPrice(reFromPrice, markup)
	return snap, snap.AvailableItems != nil || snap.FromPrice != nil
}

// SellerPrices collects every numeric-with-currency token in the document,
// drops tokens that fail to parse or fall outside [10, 10000), deduplicates,
// sorts ascending, and truncates to the first 50.
func SellerPrices(markup string) []float64 {
	matches := reSellerPrice.FindAllStringSubmatch(markup, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[float64]struct{}, len(matches))
	prices := make([]float64, 0, len(matches))
	for _, m := range matches {
		p, err := Price(m[1])
		if err != nil {
			continue
		}
		if p < minSellerPrice || p >= maxSellerPrice {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		prices = append(prices, p)
	}

	sort.Float64s(prices)
	if len(prices) > maxSellerPrices {
		prices = prices[:maxSellerPrices]
	}
	if len(prices) == 0 {
		return nil
	}
	return prices
}

func matchPrice(re *regexp.Regexp, markup string) *float64 {
	m := re.FindStringSubmatch(markup)
	if m == nil {
		return nil
	}
	v, err := Price(m[1])
	if err != nil {
		return nil
	}
	return &v
}

func matchCount(re *regexp.Regexp, markup string) *int {
	m := re.FindStringSubmatch(markup)
	if m == nil {
		return nil
	}
	n, err := Count(m[1])
	if err != nil {
		return nil
	}
	return &n
}
