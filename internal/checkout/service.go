package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/internal/orders"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	"github.com/forgeformula/storefront-backend/pkg/money"
	pkgstripe "github.com/forgeformula/storefront-backend/pkg/stripe"
	"github.com/forgeformula/storefront-backend/pkg/types"
	"github.com/forgeformula/storefront-backend/pkg/validate"
)

type orderWorkflow interface {
	Quote(ctx context.Context, items []orders.ItemInput) (*orders.Quote, error)
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.Placement, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID) error
	CancelUnpaid(ctx context.Context, orderID uuid.UUID) error
}

type methodLister interface {
	ListEnabled(ctx context.Context) ([]models.PaymentMethod, error)
}

type sessionProvider interface {
	CreateCheckoutSession(ctx context.Context, req pkgstripe.SessionRequest) (*pkgstripe.Session, error)
	GetCheckoutSession(ctx context.Context, id string) (*pkgstripe.Session, error)
}

// Service opens hosted card checkout sessions and reconciles their outcome.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*SessionResult, error)
	SessionStatus(ctx context.Context, userID, sessionID string) (*StatusResult, error)
}

type CreateSessionInput struct {
	UserID          string
	Email           string
	Items           []orders.ItemInput
	ShippingAddress types.ShippingAddress
	Notes           string
}

type SessionResult struct {
	URL       string    `json:"url"`
	SessionID string    `json:"sessionId"`
	OrderID   uuid.UUID `json:"orderId"`
}

type StatusResult struct {
	OrderID       uuid.UUID `json:"orderId"`
	Status        string    `json:"status"`
	SessionStatus string    `json:"sessionStatus"`
	PaymentStatus string    `json:"paymentStatus"`
}

type ServiceParams struct {
	Orders     orderWorkflow
	Methods    methodLister
	Sessions   sessionProvider
	SuccessURL string
	CancelURL  string
	Logger     *logger.Logger
}

type service struct {
	orders     orderWorkflow
	methods    methodLister
	sessions   sessionProvider
	successURL string
	cancelURL  string
	logg       *logger.Logger
}

// NewService builds the checkout service. A nil Sessions provider is allowed;
// every call then fails with DEPENDENCY_ERROR so other payment methods keep
// working without a processor key.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order workflow required")
	}
	if params.Methods == nil {
		return nil, fmt.Errorf("payment method registry required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		orders:     params.Orders,
		methods:    params.Methods,
		sessions:   params.Sessions,
		successURL: params.SuccessURL,
		cancelURL:  params.CancelURL,
		logg:       logg,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*SessionResult, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to pay by card")
	}

	quote, err := s.orders.Quote(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	address := input.ShippingAddress
	address.Normalize()
	if err := validate.Struct(address); err != nil {
		return nil, err
	}

	card, err := s.cardMethod(ctx)
	if err != nil {
		return nil, err
	}
	if s.sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card processor not configured")
	}

	orderID := uuid.New()
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	session, err := s.sessions.CreateCheckoutSession(ctx, pkgstripe.SessionRequest{
		Reference:     orderID.String(),
		CustomerEmail: strings.TrimSpace(input.Email),
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		LineItems:     lineItems(quote),
		Metadata:      map[string]string{"order_id": orderID.String()},
	})
	if err != nil {
		s.logg.Error(ctx, "checkout.session_create_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	submitted := quote.Totals
	placement, err := s.orders.PlaceOrder(ctx, orders.PlaceOrderInput{
		UserID:           input.UserID,
		Items:            input.Items,
		ShippingAddress:  address,
		PaymentMethodKey: card.ProviderKey,
		Submitted:        &submitted,
		Notes:            input.Notes,
		OrderID:          orderID,
		PaymentSessionID: session.ID,
	})
	if err != nil {
		// the session expires on its own; its expiry event finds no order
		return nil, err
	}

	s.logg.Info(ctx, "checkout.session_created")
	return &SessionResult{URL: session.URL, SessionID: session.ID, OrderID: placement.Order.ID}, nil
}

// SessionStatus reconciles the order with the processor's view of the session.
// Sessions that belong to another user are reported as not found.
func (s *service) SessionStatus(ctx context.Context, userID, sessionID string) (*StatusResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	order, err := s.orders.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	if s.sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card processor not configured")
	}

	session, err := s.sessions.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		if pkgstripe.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}

	status := order.Status
	switch {
	case session.Paid():
		if err := s.orders.MarkPaid(ctx, order.ID); err != nil {
			return nil, err
		}
		status = enums.OrderStatusPaid
	case session.Expired():
		if err := s.orders.CancelUnpaid(ctx, order.ID); err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			return nil, err
		}
		if status == enums.OrderStatusPending {
			status = enums.OrderStatusCancelled
		}
	}

	return &StatusResult{
		OrderID:       order.ID,
		Status:        status.String(),
		SessionStatus: session.Status,
		PaymentStatus: session.PaymentStatus,
	}, nil
}

func (s *service) cardMethod(ctx context.Context) (*models.PaymentMethod, error) {
	methods, err := s.methods.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	for i := range methods {
		if methods[i].Type == enums.PaymentMethodTypeCard {
			return &methods[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "card payments are unavailable").
		WithDetails(map[string]any{"paymentMethod": "no card method is enabled"})
}

// lineItems mirrors the quote, with shipping and tax as their own rows so the
// session total equals the order total.
func lineItems(q *orders.Quote) []pkgstripe.LineItem {
	items := make([]pkgstripe.LineItem, 0, len(q.Lines)+2)
	for _, line := range q.Lines {
		items = append(items, pkgstripe.LineItem{
			Name:           line.Product.Name,
			UnitAmountCent: money.Cents(line.UnitPrice()),
			Quantity:       int64(line.Quantity),
			ImageURL:       line.Product.ImageURL,
		})
	}
	if q.Totals.Shipping.IsPositive() {
		items = append(items, pkgstripe.LineItem{Name: "Shipping", UnitAmountCent: money.Cents(q.Totals.Shipping), Quantity: 1})
	}
	if q.Totals.Tax.IsPositive() {
		items = append(items, pkgstripe.LineItem{Name: "Tax", UnitAmountCent: money.Cents(q.Totals.Tax), Quantity: 1})
	}
	return items
}
