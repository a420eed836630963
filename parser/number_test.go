package parser

import (
	"errors"
	"testing"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{name: "european decimal comma", in: "127,50", want: 127.50},
		{name: "european with currency", in: "14,50 €", want: 14.50},
		{name: "thousands plus decimal", in: "1,234.56", want: 1234.56},
		{name: "plain decimal", in: "9.99", want: 9.99},
		{name: "plain integer", in: "125", want: 125},
		{name: "whitespace", in: "  12,00 € ", want: 12.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(tt.in)
			if err != nil {
				t.Fatalf("Price(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("Price(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPriceInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12,34,56.78.9", "€"} {
		if _, err := Price(in); !errors.Is(err, ErrNotANumber) {
			t.Fatalf("Price(%q) error = %v, want ErrNotANumber", in, err)
		}
	}
}

func TestCount(t *testing.T) {
	got, err := Count("1,234")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if got != 1234 {
		t.Fatalf("Count(\"1,234\") = %d, want 1234", got)
	}

	if _, err := Count("lots"); !errors.Is(err, ErrNotANumber) {
		t.Fatalf("Count(\"lots\") error = %v, want ErrNotANumber", err)
	}
}
