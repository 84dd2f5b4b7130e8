package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name                     string
		amount, rate             float64
		term                     int
		monthly, total, interest string
	}{
		// 10,000 at 6% over 36 months
		{"standard", 10000, 6, 36, "304.22", "10951.92", "951.92"},
		{"zero rate", 1200, 0, 12, "100", "1200", "0"},
		{"single month", 1000, 12, 1, "1010", "1010", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compute64(tt.amount, tt.rate, tt.term)
			if err != nil {
				t.Fatalf("Compute err: %v", err)
			}
			if !q.MonthlyPayment.Equal(decimal.RequireFromString(tt.monthly)) {
				t.Fatalf("monthly = %s, want %s", q.MonthlyPayment, tt.monthly)
			}
			if !q.TotalPayment.Equal(decimal.RequireFromString(tt.total)) {
				t.Fatalf("total = %s, want %s", q.TotalPayment, tt.total)
			}
			if !q.TotalInterest.Equal(decimal.RequireFromString(tt.interest)) {
				t.Fatalf("interest = %s, want %s", q.TotalInterest, tt.interest)
			}
		})
	}
}

func TestCompute_Invalid(t *testing.T) {
	cases := []struct {
		amount, rate float64
		term         int
	}{
		{0, 5, 12},
		{-10, 5, 12},
		{1000, -1, 12},
		{1000, 101, 12},
		{1000, 5, 0},
		{1000, 5, maxTermMonths + 1},
	}
	for _, c := range cases {
		if _, err := Compute64(c.amount, c.rate, c.term); !errors.Is(err, ErrInvalidQuote) {
			t.Fatalf("Compute64(%v, %v, %d) err = %v", c.amount, c.rate, c.term, err)
		}
	}
}
