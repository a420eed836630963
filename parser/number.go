package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotANumber is returned when a marketplace numeric token does not clean
// up into a valid decimal. Callers treat this as "field absent", not fatal.
var ErrNotANumber = errors.New("not a valid number")

// Price parses a marketplace-formatted amount such as "127,50 €" or
// "1,234.56". A comma without a period is the European decimal separator;
// a comma alongside a period is a thousands separator and is stripped.
func Price(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "€"))

	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")
	switch {
	case hasComma && !hasPeriod:
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma && hasPeriod:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, ErrNotANumber)
	}
	return v, nil
}

// Count parses an item count such as "125" or "1,234".
func Count(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, ErrNotANumber)
	}
	return n, nil
}
