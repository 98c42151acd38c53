package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/forgeformula/storefront-backend/internal/cart"
	"github.com/forgeformula/storefront-backend/internal/pricing"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	"github.com/forgeformula/storefront-backend/pkg/metrics"
	"github.com/forgeformula/storefront-backend/pkg/money"
	"github.com/forgeformula/storefront-backend/pkg/pagination"
	"github.com/forgeformula/storefront-backend/pkg/types"
	"github.com/forgeformula/storefront-backend/pkg/validate"
)

// Service places orders and manages their lifecycle.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Placement, error)
	Quote(ctx context.Context, items []ItemInput) (*Quote, error)
	ListForUser(ctx context.Context, userID string, params pagination.Params) (*types.Page[OrderDTO], error)
	GetForUser(ctx context.Context, userID string, orderID uuid.UUID) (*OrderDTO, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID) error
	CancelUnpaid(ctx context.Context, orderID uuid.UUID) error
}

// ItemInput is one requested line; duplicates are merged.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput carries everything needed to commit an order. UserID is
// empty for guest orders. Submitted, when set, holds the totals the customer
// saw and is checked against the recomputed totals.
type PlaceOrderInput struct {
	UserID           string
	GuestEmail       string
	Items            []ItemInput
	ShippingAddress  types.ShippingAddress
	PaymentMethodKey string
	Submitted        *pricing.Totals
	Notes            string
	OrderID          uuid.UUID
	PaymentSessionID string
}

// Placement is a committed order and the method chosen to pay it.
type Placement struct {
	Order         *models.Order
	PaymentMethod *models.PaymentMethod
}

// Quote is a priced set of lines that has not been persisted.
type Quote struct {
	Lines  []cart.Line
	Totals pricing.Totals
}

type guestContact struct {
	Email string `json:"guestEmail" validate:"required,email,max=320"`
}

type ServiceParams struct {
	Repo                Repository
	Tx                  txRunner
	Methods             methodResolver
	Calculator          *pricing.Calculator
	Metrics             *metrics.OrderMetrics
	Logger              *logger.Logger
	RequireAuthForOrder bool
	PriceTolerance      decimal.Decimal
}

type service struct {
	repo        Repository
	tx          txRunner
	methods     methodResolver
	calc        *pricing.Calculator
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
	requireAuth bool
	tolerance   decimal.Decimal
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Methods == nil {
		return nil, fmt.Errorf("payment method resolver required")
	}
	if params.Calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		methods:     params.Methods,
		calc:        params.Calculator,
		metrics:     params.Metrics,
		logg:        logg,
		requireAuth: params.RequireAuthForOrder,
		tolerance:   params.PriceTolerance,
		now:         time.Now,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Placement, error) {
	start := s.now()
	placement, err := s.place(ctx, input)
	s.metrics.ObserveDuration(s.now().Sub(start))
	if err != nil {
		code := pkgerrors.As(err).Code()
		s.metrics.IncFailure(string(code))
		logCtx := s.logg.WithFields(ctx, map[string]any{"code": code, "items": len(input.Items)})
		if pkgerrors.MetadataFor(code).HTTPStatus >= 500 {
			s.logg.Error(logCtx, "orders.place_failed", err)
		} else {
			s.logg.Warn(logCtx, "orders.place_rejected")
		}
		return nil, err
	}

	s.metrics.IncPlaced(placement.PaymentMethod.Type.String())
	s.logg.Info(s.logg.WithOrderID(ctx, placement.Order.ID.String()), "orders.placed")
	return placement, nil
}

func (s *service) place(ctx context.Context, input PlaceOrderInput) (*Placement, error) {
	userID := strings.TrimSpace(input.UserID)
	var guestEmail *string
	if userID == "" {
		if s.requireAuth {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
		}
		contact := guestContact{Email: strings.TrimSpace(input.GuestEmail)}
		if err := validate.Struct(contact); err != nil {
			return nil, err
		}
		guestEmail = &contact.Email
	}

	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	address := input.ShippingAddress
	address.Normalize()
	if err := validate.Struct(address); err != nil {
		return nil, err
	}

	method, err := s.resolveMethod(ctx, input.PaymentMethodKey)
	if err != nil {
		return nil, err
	}
	if method.Type == enums.PaymentMethodTypeCard {
		if userID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to pay by card")
		}
		if strings.TrimSpace(input.PaymentSessionID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card payments go through hosted checkout").
				WithDetails(map[string]any{"paymentMethod": "use the hosted checkout for card payments"})
		}
	}

	order := &models.Order{
		ID:              input.OrderID,
		GuestEmail:      guestEmail,
		Status:          enums.OrderStatusPending,
		ShippingAddress: address,
		PaymentMethodID: &method.ID,
	}
	if userID != "" {
		order.UserID = &userID
	}
	if sid := strings.TrimSpace(input.PaymentSessionID); sid != "" {
		order.PaymentSessionID = &sid
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		order.Notes = &notes
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		c, err := s.buildCart(ctx, repo, input.Items)
		if err != nil {
			return err
		}
		totals := s.calc.Quote(c.PricingLines())
		if input.Submitted != nil && !s.totalsMatch(*input.Submitted, totals) {
			return pkgerrors.New(pkgerrors.CodePriceMismatch, "prices changed, review your cart").
				WithDetails(map[string]any{
					"submitted": NewTotalsDTO(*input.Submitted),
					"computed":  NewTotalsDTO(totals),
				})
		}

		for _, line := range c.Lines() {
			ok, err := repo.DecrementStock(ctx, line.Product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
					WithDetails(map[string]any{
						"productId": line.Product.ID.String(),
						"requested": line.Quantity,
					})
			}
		}

		order.Subtotal = totals.Subtotal
		order.Shipping = totals.Shipping
		order.Tax = totals.Tax
		order.Total = totals.Total
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(c.Lines()))
		for _, line := range c.Lines() {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.Product.ID,
				Quantity:  line.Quantity,
				Price:     line.UnitPrice(),
				Name:      line.Product.Name,
				ImageURL:  line.Product.ImageURL,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Placement{Order: order, PaymentMethod: method}, nil
}

func (s *service) Quote(ctx context.Context, items []ItemInput) (*Quote, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	c, err := s.buildCart(ctx, s.repo, items)
	if err != nil {
		return nil, err
	}
	return &Quote{Lines: c.Lines(), Totals: s.calc.Quote(c.PricingLines())}, nil
}

// buildCart merges the requested items through the cart aggregate. Missing
// and inactive products conflict; unpriced products are inquiry only.
func (s *service) buildCart(ctx context.Context, repo Repository, items []ItemInput) (*cart.Cart, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c := cart.New()
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product unavailable").
				WithDetails(map[string]any{"productId": item.ProductID.String()})
		}
		if _, err := c.AddItem(product, item.Quantity); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *service) totalsMatch(submitted, computed pricing.Totals) bool {
	return money.WithinTolerance(submitted.Subtotal, computed.Subtotal, s.tolerance) &&
		money.WithinTolerance(submitted.Shipping, computed.Shipping, s.tolerance) &&
		money.WithinTolerance(submitted.Tax, computed.Tax, s.tolerance) &&
		money.WithinTolerance(submitted.Total, computed.Total, s.tolerance)
}

func (s *service) resolveMethod(ctx context.Context, key string) (*models.PaymentMethod, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required").
			WithDetails(map[string]any{"paymentMethod": "is required"})
	}
	method, err := s.methods.GetByProviderKey(ctx, key)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
				WithDetails(map[string]any{"paymentMethod": "is not available"})
		}
		return nil, err
	}
	if !method.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method disabled").
			WithDetails(map[string]any{"paymentMethod": "is not available"})
	}
	return method, nil
}

func (s *service) ListForUser(ctx context.Context, userID string, params pagination.Params) (*types.Page[OrderDTO], error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"cursor": "is invalid"})
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListOrdersForUser(ctx, userID, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	rows, next := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	page := &types.Page[OrderDTO]{Items: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for _, o := range rows {
		page.Items = append(page.Items, NewOrderDTO(o))
	}
	return page, nil
}

// GetForUser hides orders that belong to someone else behind NOT_FOUND.
func (s *service) GetForUser(ctx context.Context, userID string, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.findOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(*order)
	return &dto, nil
}

func (s *service) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	order, err := s.repo.FindOrderBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// MarkPaid moves a pending order to paid. Repeating it is a no-op.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.transition(ctx, s.repo.WithTx(tx), orderID, enums.OrderStatusPending, enums.OrderStatusPaid)
		return err
	})
}

// CancelUnpaid cancels a pending order and returns its units to stock.
// Repeating it is a no-op.
func (s *service) CancelUnpaid(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.transition(ctx, repo, orderID, enums.OrderStatusPending, enums.OrderStatusCancelled)
		if err != nil || order == nil {
			return err
		}
		if err := repo.RestockItems(ctx, order.Items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restock items")
		}
		return nil
	})
}

// transition returns the order when the status changed and nil when it was
// already in the target status.
func (s *service) transition(ctx context.Context, repo Repository, orderID uuid.UUID, from, to enums.OrderStatus) (*models.Order, error) {
	order, err := s.findOrder(ctx, repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == to {
		return nil, nil
	}
	changed, err := repo.UpdateStatus(ctx, orderID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if !changed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer pending").
			WithDetails(map[string]any{"status": order.Status.String()})
	}
	order.Status = to
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String(), "status": to.String()}), "orders.status_changed")
	return order, nil
}

func (s *service) findOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}
