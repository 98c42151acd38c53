package orders

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forgeformula/storefront-backend/api/middleware"
	"github.com/forgeformula/storefront-backend/api/responses"
	"github.com/forgeformula/storefront-backend/api/validators"
	cartsvc "github.com/forgeformula/storefront-backend/internal/cart"
	orderssvc "github.com/forgeformula/storefront-backend/internal/orders"
	"github.com/forgeformula/storefront-backend/internal/paymentmethods"
	"github.com/forgeformula/storefront-backend/internal/pricing"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	"github.com/forgeformula/storefront-backend/pkg/money"
	"github.com/forgeformula/storefront-backend/pkg/pagination"
	"github.com/forgeformula/storefront-backend/pkg/types"
)

// itemRequest mirrors a storefront cart line. Price, name and image are
// display copies; the server reprices from the catalog.
type itemRequest struct {
	ProductID string      `json:"productId" validate:"required,uuid"`
	Quantity  int         `json:"quantity" validate:"required,gte=1,lte=999"`
	Price     json.Number `json:"price,omitempty"`
	Name      string      `json:"name,omitempty"`
	ImageURL  string      `json:"imageUrl,omitempty"`
}

type createOrderRequest struct {
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	Items           []itemRequest         `json:"items" validate:"omitempty,max=100,dive"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required,max=64"`
	GuestEmail      string                `json:"guestEmail,omitempty" validate:"omitempty,email,max=320"`
	Notes           string                `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Subtotal        json.Number           `json:"subtotal,omitempty"`
	Shipping        json.Number           `json:"shipping,omitempty"`
	Tax             json.Number           `json:"tax,omitempty"`
	Total           json.Number           `json:"total,omitempty"`
}

type createOrderResponse struct {
	Order         orderssvc.OrderDTO        `json:"order"`
	PaymentMethod paymentmethods.PublicDTO `json:"paymentMethod"`
}

// List pages through the caller's orders, newest first.
func List(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func Get(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		ctx := logg.WithOrderID(r.Context(), orderID.String())
		order, err := svc.GetForUser(ctx, middleware.UserIDFromContext(ctx), orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Create places an order for a manual or crypto payment method. Lines come
// from the body when present, otherwise from the caller's server-side cart,
// which is cleared once the order commits.
func Create(svc orderssvc.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		submitted, err := submittedTotals(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		items := toItemInputs(payload.Items)
		cartID := ""
		if len(items) == 0 && carts != nil {
			if cartID, err = middleware.CartID(r); err == nil {
				view, err := carts.Get(ctx, cartID)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				items = viewItems(view)
			}
		}

		placement, err := svc.PlaceOrder(ctx, orderssvc.PlaceOrderInput{
			UserID:           middleware.UserIDFromContext(ctx),
			GuestEmail:       payload.GuestEmail,
			Items:            items,
			ShippingAddress:  payload.ShippingAddress,
			PaymentMethodKey: payload.PaymentMethod,
			Submitted:        submitted,
			Notes:            validators.SanitizeString(payload.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithOrderID(ctx, placement.Order.ID.String())

		if cartID != "" {
			if err := carts.Clear(ctx, cartID); err != nil {
				logg.Error(logg.WithCartID(ctx, cartID), "orders.cart_clear_failed", err)
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			Order:         orderssvc.NewOrderDTO(*placement.Order),
			PaymentMethod: paymentmethods.NewPublicDTO(*placement.PaymentMethod),
		})
	}
}

type amountField struct {
	name  string
	value json.Number
	dest  *decimal.Decimal
}

// submittedTotals reads the totals the shopper saw. They are optional but
// all four must be sent together.
func submittedTotals(payload createOrderRequest) (*pricing.Totals, error) {
	var totals pricing.Totals
	fields := []amountField{
		{"subtotal", payload.Subtotal, &totals.Subtotal},
		{"shipping", payload.Shipping, &totals.Shipping},
		{"tax", payload.Tax, &totals.Tax},
		{"total", payload.Total, &totals.Total},
	}

	present := 0
	for _, f := range fields {
		if f.value != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != len(fields) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "totals must be submitted together").
			WithDetails(map[string]any{"totals": "send subtotal, shipping, tax and total or none of them"})
	}

	for _, f := range fields {
		amount, err := money.Parse(f.value.String())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
				WithDetails(map[string]any{f.name: err.Error()})
		}
		*f.dest = amount
	}
	return &totals, nil
}

func toItemInputs(items []itemRequest) []orderssvc.ItemInput {
	out := make([]orderssvc.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, orderssvc.ItemInput{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
		})
	}
	return out
}

func viewItems(view *cartsvc.View) []orderssvc.ItemInput {
	out := make([]orderssvc.ItemInput, 0, len(view.Lines))
	for _, line := range view.Lines {
		out = append(out, orderssvc.ItemInput{ProductID: line.Product.ID, Quantity: line.Quantity})
	}
	return out
}
