package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forgeformula/storefront-backend/internal/pricing"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/visibility"
)

// Line pairs a product with a quantity of at least one.
type Line struct {
	Product  models.Product
	Quantity int
}

// UnitPrice is the product price; lines never hold unpriced products.
func (l Line) UnitPrice() decimal.Decimal {
	return l.Product.Price.Decimal
}

// LineTotal is unit price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered set of lines with at most one line per product. It is a
// plain value owned by whoever is handling the request.
type Cart struct {
	lines        []Line
	clampToStock bool
}

// Option tweaks cart behaviour.
type Option func(*Cart)

// WithStockClamp caps every line at the product's stock.
func WithStockClamp(enabled bool) Option {
	return func(c *Cart) { c.clampToStock = enabled }
}

// New returns an empty cart.
func New(opts ...Option) *Cart {
	c := &Cart{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddItem increments the product's line by qty, appending a new line when the
// product is not in the cart yet. Inquire-only products are refused.
func (c *Cart) AddItem(product models.Product, qty int) (Line, error) {
	if qty < 1 {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": "must be at least 1"})
	}
	if err := visibility.EnsurePurchasable(product); err != nil {
		return Line{}, err
	}

	idx := c.index(product.ID)
	current := 0
	if idx >= 0 {
		current = c.lines[idx].Quantity
	}
	next := c.clamp(product, current+qty)
	if next < 1 {
		return Line{}, outOfStock(product)
	}

	line := Line{Product: product, Quantity: next}
	if idx >= 0 {
		c.lines[idx] = line
	} else {
		c.lines = append(c.lines, line)
	}
	return line, nil
}

// RemoveItem deletes the product's line and reports whether one existed.
func (c *Cart) RemoveItem(productID uuid.UUID) bool {
	idx := c.index(productID)
	if idx < 0 {
		return false
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return true
}

// UpdateQuantity sets the product's quantity. A quantity of zero or less
// removes the line, exactly like RemoveItem. The returned bool is false when
// the line no longer exists afterwards.
func (c *Cart) UpdateQuantity(productID uuid.UUID, qty int) (Line, bool, error) {
	if qty <= 0 {
		c.RemoveItem(productID)
		return Line{}, false, nil
	}
	idx := c.index(productID)
	if idx < 0 {
		return Line{}, false, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	line := &c.lines[idx]
	line.Quantity = c.clamp(line.Product, qty)
	if line.Quantity < 1 {
		c.RemoveItem(productID)
		return Line{}, false, nil
	}
	return *line, true, nil
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID uuid.UUID) (Line, bool) {
	if idx := c.index(productID); idx >= 0 {
		return c.lines[idx], true
	}
	return Line{}, false
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is the sum of every line total.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.lines = nil
}

// PricingLines adapts the cart for the pricing calculator.
func (c *Cart) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, pricing.Line{UnitPrice: l.UnitPrice(), Quantity: l.Quantity})
	}
	return out
}

func (c *Cart) index(productID uuid.UUID) int {
	for i, l := range c.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) clamp(product models.Product, qty int) int {
	if c.clampToStock && qty > product.Stock {
		return product.Stock
	}
	return qty
}

func outOfStock(p models.Product) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock").
		WithDetails(map[string]any{"productId": p.ID.String()})
}
