// Package calculator quotes amortized monthly payments.
package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuote = errors.New("invalid loan quote request")

const maxTermMonths = 600

type Quote struct {
	Amount         decimal.Decimal
	AnnualRatePct  decimal.Decimal
	TermMonths     int
	MonthlyPayment decimal.Decimal
	TotalPayment   decimal.Decimal
	TotalInterest  decimal.Decimal
}

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Compute returns the fixed monthly payment P*r*f/(f-1) with f=(1+r)^n,
// or P/n for a zero rate. Results are rounded to cents.
func Compute(amount, annualRatePct decimal.Decimal, termMonths int) (*Quote, error) {
	switch {
	case !amount.IsPositive():
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidQuote)
	case annualRatePct.IsNegative() || annualRatePct.GreaterThan(hundred):
		return nil, fmt.Errorf("%w: rate must be between 0 and 100", ErrInvalidQuote)
	case termMonths < 1 || termMonths > maxTermMonths:
		return nil, fmt.Errorf("%w: term must be between 1 and %d months", ErrInvalidQuote, maxTermMonths)
	}

	n := decimal.NewFromInt(int64(termMonths))
	var monthly decimal.Decimal
	if annualRatePct.IsZero() {
		monthly = amount.Div(n)
	} else {
		r := annualRatePct.Div(hundred).Div(twelve)
		f := decimal.NewFromInt(1).Add(r).Pow(n)
		monthly = amount.Mul(r).Mul(f).Div(f.Sub(decimal.NewFromInt(1)))
	}
	monthly = monthly.Round(2)
	total := monthly.Mul(n).Round(2)

	return &Quote{
		Amount:         amount.Round(2),
		AnnualRatePct:  annualRatePct,
		TermMonths:     termMonths,
		MonthlyPayment: monthly,
		TotalPayment:   total,
		TotalInterest:  total.Sub(amount).Round(2),
	}, nil
}

// Compute64 is Compute for float inputs as they arrive from query strings.
func Compute64(amount, annualRatePct float64, termMonths int) (*Quote, error) {
	return Compute(decimal.NewFromFloat(amount), decimal.NewFromFloat(annualRatePct), termMonths)
}
