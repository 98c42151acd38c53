package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forgeformula/storefront-backend/internal/pricing"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
)

type productLoader interface {
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service manages persisted carts.
type Service interface {
	Get(ctx context.Context, cartID string) (*View, error)
	AddItem(ctx context.Context, cartID string, productID uuid.UUID, qty int) (*View, error)
	UpdateQuantity(ctx context.Context, cartID string, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, cartID string, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, cartID string) error
}

// View is a hydrated cart with its price breakdown.
type View struct {
	ID                    string
	Lines                 []Line
	Count                 int
	Totals                pricing.Totals
	FreeShippingRemaining decimal.Decimal
}

type service struct {
	store        Store
	products     productLoader
	calc         *pricing.Calculator
	clampToStock bool
	logg         *logger.Logger
}

type ServiceParams struct {
	Store        Store
	Products     productLoader
	Calculator   *pricing.Calculator
	ClampToStock bool
	Logger       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:        params.Store,
		products:     params.Products,
		calc:         params.Calculator,
		clampToStock: params.ClampToStock,
		logg:         logg,
	}, nil
}

func (s *service) Get(ctx context.Context, cartID string) (*View, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.view(cartID, c), nil
}

func (s *service) AddItem(ctx context.Context, cartID string, productID uuid.UUID, qty int) (*View, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	line, err := c.AddItem(product, qty)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetQuantity(ctx, cartID, productID, line.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart line")
	}
	return s.view(cartID, c), nil
}

func (s *service) UpdateQuantity(ctx context.Context, cartID string, productID uuid.UUID, qty int) (*View, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	line, kept, err := c.UpdateQuantity(productID, qty)
	if err != nil {
		return nil, err
	}
	if kept {
		err = s.store.SetQuantity(ctx, cartID, productID, line.Quantity)
	} else {
		err = s.store.Remove(ctx, cartID, productID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart line")
	}
	return s.view(cartID, c), nil
}

func (s *service) RemoveItem(ctx context.Context, cartID string, productID uuid.UUID) (*View, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(productID)
	if err := s.store.Remove(ctx, cartID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	return s.view(cartID, c), nil
}

func (s *service) Clear(ctx context.Context, cartID string) error {
	if err := s.store.Clear(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

// load rebuilds the aggregate from storage. Lines whose product was deleted,
// deactivated or lost its price are dropped and pruned from storage.
func (s *service) load(ctx context.Context, cartID string) (*Cart, error) {
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	stored, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	c := New(WithStockClamp(s.clampToStock))
	if len(stored) == 0 {
		return c, nil
	}

	ids := make([]uuid.UUID, 0, len(stored))
	for id := range stored {
		ids = append(ids, id)
	}
	// map iteration is random; keep line order stable between requests
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var stale []uuid.UUID
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			stale = append(stale, id)
			continue
		}
		if _, err := c.AddItem(product, stored[id]); err != nil {
			stale = append(stale, id)
		}
	}

	if len(stale) > 0 {
		if err := s.store.Remove(ctx, cartID, stale...); err != nil {
			s.logg.Warn(s.logg.WithCartID(ctx, cartID), "cart.prune_failed")
		}
	}
	return c, nil
}

func (s *service) product(ctx context.Context, id uuid.UUID) (models.Product, error) {
	products, err := s.products.GetProductsByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return models.Product{}, err
	}
	product, ok := products[id]
	if !ok {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// view prices the cart. An empty cart shows zero totals rather than a fee.
func (s *service) view(cartID string, c *Cart) *View {
	var totals pricing.Totals
	if c.IsEmpty() {
		totals = pricing.Totals{Subtotal: decimal.Zero, Shipping: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	} else {
		totals = s.calc.Quote(c.PricingLines())
	}
	return &View{
		ID:                    cartID,
		Lines:                 c.Lines(),
		Count:                 c.Count(),
		Totals:                totals,
		FreeShippingRemaining: s.calc.FreeShippingRemaining(totals.Subtotal),
	}
}
