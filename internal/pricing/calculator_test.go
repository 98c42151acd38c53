package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/forgeformula/storefront-backend/pkg/config"
	"github.com/forgeformula/storefront-backend/pkg/money"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func standard() *Calculator {
	return NewCalculator(d("150"), d("15"), NoTax{})
}

func TestQuoteBelowThreshold(t *testing.T) {
	got := standard().Quote([]Line{{UnitPrice: d("19.99"), Quantity: 3}})
	want := map[string][2]decimal.Decimal{
		"subtotal": {got.Subtotal, d("59.97")},
		"shipping": {got.Shipping, d("15.00")},
		"tax":      {got.Tax, d("0.00")},
		"total":    {got.Total, d("74.97")},
	}
	for name, pair := range want {
		if !pair[0].Equal(pair[1]) {
			t.Fatalf("%s = %s, want %s", name, money.String(pair[0]), money.String(pair[1]))
		}
	}
}

func TestQuoteAboveThreshold(t *testing.T) {
	got := standard().Quote([]Line{{UnitPrice: d("19.99"), Quantity: 8}})
	if !got.Subtotal.Equal(d("159.92")) || !got.Shipping.IsZero() || !got.Total.Equal(d("159.92")) {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestShippingBoundary(t *testing.T) {
	c := standard()
	if !c.Shipping(d("150")).IsZero() {
		t.Fatalf("shipping at the threshold should be free")
	}
	if !c.Shipping(d("149.99")).Equal(d("15")) {
		t.Fatalf("shipping one cent under the threshold should be the flat fee")
	}
	if !c.Shipping(decimal.Zero).Equal(d("15")) {
		t.Fatalf("a zero subtotal is under the threshold and pays the flat fee")
	}

	free := c.Quote([]Line{{UnitPrice: d("0.00"), Quantity: 2}})
	if !free.Shipping.Equal(d("15")) || !free.Total.Equal(d("15")) {
		t.Fatalf("zero priced lines should still pay shipping, got %+v", free)
	}
}

func TestFlatShippingVariant(t *testing.T) {
	c := NewCalculator(decimal.Zero, decimal.Zero, nil)
	got := c.Quote([]Line{{UnitPrice: d("5"), Quantity: 1}})
	if !got.Shipping.IsZero() || !got.Total.Equal(d("5")) {
		t.Fatalf("zero threshold should always ship free, got %+v", got)
	}
}

func TestFlatRateTaxRoundsHalfUp(t *testing.T) {
	c := NewCalculator(d("150"), d("15"), FlatRate{Rate: d("0.0825")})
	// 10.00 * 0.0825 = 0.825 -> 0.83
	if got := c.Tax(d("10.00")); !got.Equal(d("0.83")) {
		t.Fatalf("expected 0.83, got %s", got)
	}
}

func TestTotalNeverDrifts(t *testing.T) {
	c := NewCalculator(d("150"), d("15"), FlatRate{Rate: d("0.07")})
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		var lines []Line
		for j := 0; j < 1+rng.Intn(5); j++ {
			lines = append(lines, Line{UnitPrice: money.FromCents(rng.Int63n(50_000)), Quantity: 1 + rng.Intn(9)})
		}
		q := c.Quote(lines)
		if !q.Total.Equal(q.Subtotal.Add(q.Shipping).Add(q.Tax)) {
			t.Fatalf("total drifted: %+v", q)
		}
		if q.Total.Exponent() < -money.Places {
			t.Fatalf("total carries more than two places: %s", q.Total)
		}
	}
}

func TestFreeShippingRemaining(t *testing.T) {
	c := standard()
	if got := c.FreeShippingRemaining(d("59.97")); !got.Equal(d("90.03")) {
		t.Fatalf("expected 90.03 remaining, got %s", got)
	}
	if got := c.FreeShippingRemaining(d("200")); !got.IsZero() {
		t.Fatalf("expected zero remaining, got %s", got)
	}
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(config.PricingConfig{FreeShippingThreshold: "100", FlatShippingFee: "9.50", TaxPolicy: "flat", TaxRate: "0.1"})
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	got := c.Quote([]Line{{UnitPrice: d("20"), Quantity: 2}})
	if !got.Shipping.Equal(d("9.50")) || !got.Tax.Equal(d("4")) || !got.Total.Equal(d("53.50")) {
		t.Fatalf("unexpected totals %+v", got)
	}

	if _, err := FromConfig(config.PricingConfig{TaxPolicy: "vat"}); err == nil {
		t.Fatalf("unknown policy should fail")
	}
}
