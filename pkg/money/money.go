// Package money keeps currency arithmetic in fixed precision.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of minor-unit digits in every amount we store.
const Places = 2

// Round rounds half away from zero to two places, which is half-up for the
// non-negative amounts the storefront deals with.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// String formats an amount as a plain two-decimal string.
func String(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Parse reads a decimal amount, rejecting negatives and more than two places.
func Parse(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q must not be negative", raw)
	}
	if !d.Equal(Round(d)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", raw, Places)
	}
	return d, nil
}

// Cents converts an amount to integer minor units.
func Cents(d decimal.Decimal) int64 {
	return Round(d).Shift(Places).IntPart()
}

// FromCents builds an amount from integer minor units.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// WithinTolerance reports whether a and b differ by at most tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
