package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeformula/storefront-backend/internal/cart"
	"github.com/forgeformula/storefront-backend/internal/orders"
	"github.com/forgeformula/storefront-backend/internal/pricing"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	pkgstripe "github.com/forgeformula/storefront-backend/pkg/stripe"
	"github.com/forgeformula/storefront-backend/pkg/types"
)

type fakeOrders struct {
	quote     *orders.Quote
	quoteErr  error
	placeErr  error
	placed    []orders.PlaceOrderInput
	bySession map[string]*models.Order
	paid      []uuid.UUID
	cancelled []uuid.UUID
}

func (f *fakeOrders) Quote(context.Context, []orders.ItemInput) (*orders.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeOrders) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*orders.Placement, error) {
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	f.placed = append(f.placed, input)
	return &orders.Placement{Order: &models.Order{ID: input.OrderID, Status: enums.OrderStatusPending}}, nil
}

func (f *fakeOrders) FindBySessionID(_ context.Context, id string) (*models.Order, error) {
	if o, ok := f.bySession[id]; ok {
		return o, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (f *fakeOrders) MarkPaid(_ context.Context, id uuid.UUID) error {
	f.paid = append(f.paid, id)
	return nil
}

func (f *fakeOrders) CancelUnpaid(_ context.Context, id uuid.UUID) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fakeMethods struct {
	methods []models.PaymentMethod
}

func (f fakeMethods) ListEnabled(context.Context) ([]models.PaymentMethod, error) {
	return f.methods, nil
}

type fakeSessions struct {
	createErr error
	getErr    error
	requests  []pkgstripe.SessionRequest
	session   *pkgstripe.Session
}

func (f *fakeSessions) CreateCheckoutSession(_ context.Context, req pkgstripe.SessionRequest) (*pkgstripe.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.requests = append(f.requests, req)
	return &pkgstripe.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1", Reference: req.Reference}, nil
}

func (f *fakeSessions) GetCheckoutSession(context.Context, string) (*pkgstripe.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func sampleQuote() *orders.Quote {
	widget := models.Product{
		ID:       uuid.New(),
		Name:     "Widget",
		Price:    decimal.NewNullDecimal(decimal.RequireFromString("40.00")),
		Stock:    5,
		Active:   true,
		ImageURL: "https://img.example/widget.png",
	}
	return &orders.Quote{
		Lines: []cart.Line{{Product: widget, Quantity: 2}},
		Totals: pricing.Totals{
			Subtotal: decimal.RequireFromString("80.00"),
			Shipping: decimal.RequireFromString("15.00"),
			Tax:      decimal.Zero,
			Total:    decimal.RequireFromString("95.00"),
		},
	}
}

func validAddress() types.ShippingAddress {
	return types.ShippingAddress{
		FirstName: "Pat",
		LastName:  "Doe",
		Address1:  "1 Main St",
		City:      "Springfield",
		State:     "IL",
		Zip:       "62701",
		Country:   "US",
	}
}

func cardMethods() fakeMethods {
	return fakeMethods{methods: []models.PaymentMethod{
		{ID: uuid.New(), Name: "Zelle", ProviderKey: "zelle", Type: enums.PaymentMethodTypeManual, Enabled: true},
		{ID: uuid.New(), Name: "Card", ProviderKey: "stripe", Type: enums.PaymentMethodTypeCard, Enabled: true},
	}}
}

func newTestService(t *testing.T, ord *fakeOrders, methods fakeMethods, sessions sessionProvider) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Orders:     ord,
		Methods:    methods,
		Sessions:   sessions,
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cart",
	})
	require.NoError(t, err)
	return svc
}

func TestCreateSessionPlacesPendingCardOrder(t *testing.T) {
	ord := &fakeOrders{quote: sampleQuote()}
	sessions := &fakeSessions{}
	svc := newTestService(t, ord, cardMethods(), sessions)

	res, err := svc.CreateSession(context.Background(), CreateSessionInput{
		UserID:          "user-1",
		Email:           "pat@example.com",
		Items:           []orders.ItemInput{{ProductID: ord.quote.Lines[0].Product.ID, Quantity: 2}},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", res.SessionID)
	assert.Equal(t, "https://pay.example/cs_test_1", res.URL)

	require.Len(t, sessions.requests, 1)
	req := sessions.requests[0]
	assert.Equal(t, res.OrderID.String(), req.Reference)
	assert.Equal(t, "pat@example.com", req.CustomerEmail)
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, int64(4000), req.LineItems[0].UnitAmountCent)
	assert.Equal(t, int64(2), req.LineItems[0].Quantity)
	assert.Equal(t, "Shipping", req.LineItems[1].Name)
	assert.Equal(t, int64(1500), req.LineItems[1].UnitAmountCent)

	require.Len(t, ord.placed, 1)
	placed := ord.placed[0]
	assert.Equal(t, res.OrderID, placed.OrderID)
	assert.Equal(t, "cs_test_1", placed.PaymentSessionID)
	assert.Equal(t, "stripe", placed.PaymentMethodKey)
	require.NotNil(t, placed.Submitted)
	assert.True(t, placed.Submitted.Total.Equal(decimal.RequireFromString("95.00")))
}

func TestCreateSessionRequiresUser(t *testing.T) {
	svc := newTestService(t, &fakeOrders{quote: sampleQuote()}, cardMethods(), &fakeSessions{})
	_, err := svc.CreateSession(context.Background(), CreateSessionInput{ShippingAddress: validAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestCreateSessionPropagatesQuoteErrors(t *testing.T) {
	ord := &fakeOrders{quoteErr: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")}
	sessions := &fakeSessions{}
	svc := newTestService(t, ord, cardMethods(), sessions)

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "user-1", ShippingAddress: validAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart))
	assert.Empty(t, sessions.requests)
}

func TestCreateSessionValidatesAddressBeforeCallingProcessor(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newTestService(t, &fakeOrders{quote: sampleQuote()}, cardMethods(), sessions)

	addr := validAddress()
	addr.City = ""
	_, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "user-1", ShippingAddress: addr})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, sessions.requests)
}

func TestCreateSessionWithoutCardMethod(t *testing.T) {
	methods := fakeMethods{methods: []models.PaymentMethod{{ProviderKey: "zelle", Type: enums.PaymentMethodTypeManual, Enabled: true}}}
	svc := newTestService(t, &fakeOrders{quote: sampleQuote()}, methods, &fakeSessions{})

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "user-1", ShippingAddress: validAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateSessionProcessorFailures(t *testing.T) {
	ord := &fakeOrders{quote: sampleQuote()}

	svc := newTestService(t, ord, cardMethods(), nil)
	_, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "user-1", ShippingAddress: validAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	svc = newTestService(t, ord, cardMethods(), &fakeSessions{createErr: errors.New("connection reset")})
	_, err = svc.CreateSession(context.Background(), CreateSessionInput{UserID: "user-1", ShippingAddress: validAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, ord.placed)
}

func TestCreateSessionSurfacesPlacementErrors(t *testing.T) {
	ord := &fakeOrders{quote: sampleQuote(), placeErr: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")}
	svc := newTestService(t, ord, cardMethods(), &fakeSessions{})

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "user-1", ShippingAddress: validAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestSessionStatusMarksPaid(t *testing.T) {
	order := &models.Order{ID: uuid.New(), UserID: ptr("user-1"), Status: enums.OrderStatusPending}
	ord := &fakeOrders{bySession: map[string]*models.Order{"cs_1": order}}
	sessions := &fakeSessions{session: &pkgstripe.Session{ID: "cs_1", Status: "complete", PaymentStatus: "paid"}}
	svc := newTestService(t, ord, cardMethods(), sessions)

	res, err := svc.SessionStatus(context.Background(), "user-1", "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "paid", res.Status)
	assert.Equal(t, "paid", res.PaymentStatus)
	assert.Equal(t, []uuid.UUID{order.ID}, ord.paid)
}

func TestSessionStatusOpenSessionLeavesOrderPending(t *testing.T) {
	order := &models.Order{ID: uuid.New(), UserID: ptr("user-1"), Status: enums.OrderStatusPending}
	ord := &fakeOrders{bySession: map[string]*models.Order{"cs_1": order}}
	sessions := &fakeSessions{session: &pkgstripe.Session{ID: "cs_1", Status: "open", PaymentStatus: "unpaid"}}
	svc := newTestService(t, ord, cardMethods(), sessions)

	res, err := svc.SessionStatus(context.Background(), "user-1", "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Status)
	assert.Empty(t, ord.paid)
	assert.Empty(t, ord.cancelled)
}

func TestSessionStatusExpiredCancels(t *testing.T) {
	order := &models.Order{ID: uuid.New(), UserID: ptr("user-1"), Status: enums.OrderStatusPending}
	ord := &fakeOrders{bySession: map[string]*models.Order{"cs_1": order}}
	sessions := &fakeSessions{session: &pkgstripe.Session{ID: "cs_1", Status: "expired", PaymentStatus: "unpaid"}}
	svc := newTestService(t, ord, cardMethods(), sessions)

	res, err := svc.SessionStatus(context.Background(), "user-1", "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", res.Status)
	assert.Equal(t, []uuid.UUID{order.ID}, ord.cancelled)
}

func TestSessionStatusHidesForeignSessions(t *testing.T) {
	order := &models.Order{ID: uuid.New(), UserID: ptr("someone-else"), Status: enums.OrderStatusPending}
	ord := &fakeOrders{bySession: map[string]*models.Order{"cs_1": order}}
	svc := newTestService(t, ord, cardMethods(), &fakeSessions{session: &pkgstripe.Session{PaymentStatus: "paid"}})

	_, err := svc.SessionStatus(context.Background(), "user-1", "cs_1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Empty(t, ord.paid)

	_, err = svc.SessionStatus(context.Background(), "user-1", "cs_unknown")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.SessionStatus(context.Background(), "", "cs_1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func ptr(s string) *string { return &s }
