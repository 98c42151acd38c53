// Package pricing derives cart and order totals. Everything here is pure.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/forgeformula/storefront-backend/pkg/config"
	"github.com/forgeformula/storefront-backend/pkg/money"
)

// TaxPolicy selects how tax is derived from the subtotal.
type TaxPolicy interface {
	Tax(subtotal decimal.Decimal) decimal.Decimal
}

// NoTax leaves tax to the payment processor.
type NoTax struct{}

func (NoTax) Tax(decimal.Decimal) decimal.Decimal { return decimal.Zero }

// FlatRate applies one rate to the whole subtotal.
type FlatRate struct {
	Rate decimal.Decimal
}

func (f FlatRate) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return money.Round(subtotal.Mul(f.Rate))
}

// Line is the minimum a calculator needs from a cart or order line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the full price breakdown. Total always equals
// Subtotal + Shipping + Tax.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculator applies the shipping threshold and tax policy.
type Calculator struct {
	freeThreshold decimal.Decimal
	flatFee       decimal.Decimal
	tax           TaxPolicy
}

// NewCalculator builds a calculator. A nil policy means no tax.
func NewCalculator(freeThreshold, flatFee decimal.Decimal, tax TaxPolicy) *Calculator {
	if tax == nil {
		tax = NoTax{}
	}
	return &Calculator{freeThreshold: freeThreshold, flatFee: flatFee, tax: tax}
}

// FromConfig builds a calculator from the pricing block.
func FromConfig(cfg config.PricingConfig) (*Calculator, error) {
	var policy TaxPolicy
	switch strings.ToLower(strings.TrimSpace(cfg.TaxPolicy)) {
	case "", config.TaxPolicyNone:
		policy = NoTax{}
	case config.TaxPolicyFlat:
		policy = FlatRate{Rate: cfg.Rate()}
	default:
		return nil, fmt.Errorf("unknown tax policy %q", cfg.TaxPolicy)
	}
	return NewCalculator(cfg.Threshold(), cfg.FlatFee(), policy), nil
}

// Subtotal sums unit price times quantity.
func (c *Calculator) Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return money.Round(sum)
}

// Shipping is free at or above the threshold, the flat fee otherwise.
func (c *Calculator) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(c.freeThreshold) {
		return decimal.Zero
	}
	return c.flatFee
}

// Tax applies the configured policy.
func (c *Calculator) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return c.tax.Tax(subtotal)
}

// FreeShippingRemaining is how much more the customer has to spend before
// shipping becomes free. Zero once the threshold is met.
func (c *Calculator) FreeShippingRemaining(subtotal decimal.Decimal) decimal.Decimal {
	remaining := c.freeThreshold.Sub(subtotal)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Quote computes the whole breakdown for a set of lines.
func (c *Calculator) Quote(lines []Line) Totals {
	subtotal := c.Subtotal(lines)
	shipping := c.Shipping(subtotal)
	tax := c.Tax(subtotal)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
