package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeformula/storefront-backend/api/middleware"
	cartsvc "github.com/forgeformula/storefront-backend/internal/cart"
	"github.com/forgeformula/storefront-backend/internal/checkout"
	orderssvc "github.com/forgeformula/storefront-backend/internal/orders"
	"github.com/forgeformula/storefront-backend/pkg/auth"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	"github.com/forgeformula/storefront-backend/pkg/pagination"
	"github.com/forgeformula/storefront-backend/pkg/types"
)

type stubOrders struct {
	placed    *orderssvc.PlaceOrderInput
	placeErr  error
	listUser  string
	listParam pagination.Params
	getID     uuid.UUID
}

func (s *stubOrders) PlaceOrder(_ context.Context, input orderssvc.PlaceOrderInput) (*orderssvc.Placement, error) {
	s.placed = &input
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &orderssvc.Placement{
		Order: &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending, Total: decimal.RequireFromString("95")},
		PaymentMethod: &models.PaymentMethod{ID: uuid.New(), Name: "Zelle", ProviderKey: "zelle",
			Type: enums.PaymentMethodTypeManual, Enabled: true},
	}, nil
}

func (s *stubOrders) Quote(context.Context, []orderssvc.ItemInput) (*orderssvc.Quote, error) {
	return nil, nil
}

func (s *stubOrders) ListForUser(_ context.Context, userID string, params pagination.Params) (*types.Page[orderssvc.OrderDTO], error) {
	s.listUser, s.listParam = userID, params
	return &types.Page[orderssvc.OrderDTO]{Items: []orderssvc.OrderDTO{}}, nil
}

func (s *stubOrders) GetForUser(_ context.Context, userID string, orderID uuid.UUID) (*orderssvc.OrderDTO, error) {
	s.getID = orderID
	if userID != "user-1" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &orderssvc.OrderDTO{ID: orderID, Status: "pending"}, nil
}

func (s *stubOrders) FindBySessionID(context.Context, string) (*models.Order, error) { return nil, nil }
func (s *stubOrders) MarkPaid(context.Context, uuid.UUID) error                       { return nil }
func (s *stubOrders) CancelUnpaid(context.Context, uuid.UUID) error                   { return nil }

type stubCart struct {
	lines   []cartsvc.Line
	cleared []string
}

func (s *stubCart) Get(_ context.Context, cartID string) (*cartsvc.View, error) {
	return &cartsvc.View{ID: cartID, Lines: s.lines}, nil
}
func (s *stubCart) AddItem(context.Context, string, uuid.UUID, int) (*cartsvc.View, error) {
	return nil, nil
}
func (s *stubCart) UpdateQuantity(context.Context, string, uuid.UUID, int) (*cartsvc.View, error) {
	return nil, nil
}
func (s *stubCart) RemoveItem(context.Context, string, uuid.UUID) (*cartsvc.View, error) {
	return nil, nil
}
func (s *stubCart) Clear(_ context.Context, cartID string) error {
	s.cleared = append(s.cleared, cartID)
	return nil
}

type stubCheckout struct {
	input  *checkout.CreateSessionInput
	status *checkout.StatusResult
}

func (s *stubCheckout) CreateSession(_ context.Context, input checkout.CreateSessionInput) (*checkout.SessionResult, error) {
	s.input = &input
	return &checkout.SessionResult{URL: "https://pay.example/s/cs_1", SessionID: "cs_1", OrderID: uuid.New()}, nil
}

func (s *stubCheckout) SessionStatus(_ context.Context, userID, sessionID string) (*checkout.StatusResult, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.status, nil
}

const addressJSON = `{"firstName":"Ada","lastName":"Quill","address1":"1 Main St","city":"Springfield","state":"IL","zip":"62701","country":"US"}`

func signedIn(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), auth.Identity{UserID: "user-1", Email: "user1@example.com"}))
}

func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateWithBodyItems(t *testing.T) {
	svc := &stubOrders{}
	carts := &stubCart{}
	productID := uuid.New()
	body := `{"shippingAddress":` + addressJSON + `,"paymentMethod":"zelle","items":[{"productId":"` + productID.String() + `","quantity":2,"price":40,"name":"Widget"}],"subtotal":80,"shipping":15,"tax":0,"total":95}`

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	Create(svc, carts, logger.Nop())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, svc.placed)
	assert.Equal(t, "user-1", svc.placed.UserID)
	assert.Equal(t, "zelle", svc.placed.PaymentMethodKey)
	assert.Equal(t, []orderssvc.ItemInput{{ProductID: productID, Quantity: 2}}, svc.placed.Items)
	require.NotNil(t, svc.placed.Submitted)
	assert.True(t, svc.placed.Submitted.Total.Equal(decimal.RequireFromString("95")))
	assert.Empty(t, carts.cleared, "body orders leave the server cart alone")

	var resp struct {
		Data struct {
			Order         orderssvc.OrderDTO `json:"order"`
			PaymentMethod struct {
				ProviderKey string `json:"providerKey"`
			} `json:"paymentMethod"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Data.Order.Status)
	assert.Equal(t, "95.00", resp.Data.Order.Total)
	assert.Equal(t, "zelle", resp.Data.PaymentMethod.ProviderKey)
}

func TestCreateLeavesPlacementLogToService(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf})
	productID := uuid.New()
	body := `{"shippingAddress":` + addressJSON + `,"paymentMethod":"zelle","items":[{"productId":"` + productID.String() + `","quantity":1}]}`

	rec := httptest.NewRecorder()
	Create(&stubOrders{}, &stubCart{}, logg)(rec, signedIn(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, buf.String(), "orders.placed", "the service already records placements")
}

func TestCreateFallsBackToServerCart(t *testing.T) {
	svc := &stubOrders{}
	productID := uuid.New()
	carts := &stubCart{lines: []cartsvc.Line{{Product: models.Product{ID: productID}, Quantity: 3}}}
	guestCart := uuid.New()
	body := `{"shippingAddress":` + addressJSON + `,"paymentMethod":"zelle","guestEmail":"guest@example.com"}`

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set(middleware.CartIDHeader, guestCart.String())
	rec := httptest.NewRecorder()
	Create(svc, carts, logger.Nop())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "", svc.placed.UserID)
	assert.Equal(t, "guest@example.com", svc.placed.GuestEmail)
	assert.Equal(t, []orderssvc.ItemInput{{ProductID: productID, Quantity: 3}}, svc.placed.Items)
	assert.Nil(t, svc.placed.Submitted)
	assert.Equal(t, []string{"anon:" + guestCart.String()}, carts.cleared)
}

func TestCreateKeepsCartWhenPlacementFails(t *testing.T) {
	svc := &stubOrders{placeErr: pkgerrors.New(pkgerrors.CodePriceMismatch, "prices changed")}
	carts := &stubCart{lines: []cartsvc.Line{{Product: models.Product{ID: uuid.New()}, Quantity: 1}}}
	body := `{"shippingAddress":` + addressJSON + `,"paymentMethod":"zelle"}`

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	Create(svc, carts, logger.Nop())(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, carts.cleared)
}

func TestCreateRejectsPartialTotals(t *testing.T) {
	svc := &stubOrders{}
	body := `{"shippingAddress":` + addressJSON + `,"paymentMethod":"zelle","subtotal":80}`
	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	Create(svc, &stubCart{}, logger.Nop())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.placed)
}

func TestCreateRejectsFractionalCents(t *testing.T) {
	svc := &stubOrders{}
	body := `{"shippingAddress":` + addressJSON + `,"paymentMethod":"zelle","subtotal":80.001,"shipping":15,"tax":0,"total":95}`
	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	Create(svc, &stubCart{}, logger.Nop())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.placed)
}

func TestListPassesPaging(t *testing.T) {
	svc := &stubOrders{}
	req := signedIn(httptest.NewRequest(http.MethodGet, "/api/orders?limit=10&cursor=abc", nil))
	rec := httptest.NewRecorder()
	List(svc, logger.Nop())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", svc.listUser)
	assert.Equal(t, pagination.Params{Limit: 10, Cursor: "abc"}, svc.listParam)

	rec = httptest.NewRecorder()
	List(svc, logger.Nop())(rec, signedIn(httptest.NewRequest(http.MethodGet, "/api/orders?limit=1000", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder(t *testing.T) {
	svc := &stubOrders{}
	id := uuid.New()

	rec := httptest.NewRecorder()
	Get(svc, logger.Nop())(rec, signedIn(withParam(httptest.NewRequest(http.MethodGet, "/api/orders/"+id.String(), nil), "orderId", id.String())))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.getID)

	rec = httptest.NewRecorder()
	Get(svc, logger.Nop())(rec, signedIn(withParam(httptest.NewRequest(http.MethodGet, "/api/orders/nope", nil), "orderId", "nope")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionUsesIdentity(t *testing.T) {
	svc := &stubCheckout{}
	productID := uuid.New()
	body := `{"shippingAddress":` + addressJSON + `,"items":[{"productId":"` + productID.String() + `","quantity":1}]}`
	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/checkout/sessions", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	CreateSession(svc, &stubCart{}, logger.Nop())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, svc.input)
	assert.Equal(t, "user-1", svc.input.UserID)
	assert.Equal(t, "user1@example.com", svc.input.Email)
	assert.Equal(t, "Springfield", svc.input.ShippingAddress.City)
	assert.Contains(t, rec.Body.String(), `"url":"https://pay.example/s/cs_1"`)
}

func TestCreateSessionRequiresSignIn(t *testing.T) {
	svc := &stubCheckout{}
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/sessions", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	CreateSession(svc, &stubCart{}, logger.Nop())(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, svc.input)
}

func TestSessionStatusClearsCartWhenPaid(t *testing.T) {
	svc := &stubCheckout{status: &checkout.StatusResult{OrderID: uuid.New(), Status: "paid", SessionStatus: "complete", PaymentStatus: "paid"}}
	carts := &stubCart{}
	req := signedIn(withParam(httptest.NewRequest(http.MethodGet, "/api/checkout/sessions/cs_1", nil), "sessionId", "cs_1"))
	rec := httptest.NewRecorder()
	SessionStatus(svc, carts, logger.Nop())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user:user-1"}, carts.cleared)

	svc.status = &checkout.StatusResult{Status: "pending", SessionStatus: "open", PaymentStatus: "unpaid"}
	carts.cleared = nil
	rec = httptest.NewRecorder()
	SessionStatus(svc, carts, logger.Nop())(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, carts.cleared)
}
