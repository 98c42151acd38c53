package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forgeformula/storefront-backend/api/middleware"
	"github.com/forgeformula/storefront-backend/api/responses"
	"github.com/forgeformula/storefront-backend/api/validators"
	cartsvc "github.com/forgeformula/storefront-backend/internal/cart"
	"github.com/forgeformula/storefront-backend/internal/checkout"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	"github.com/forgeformula/storefront-backend/pkg/types"
)

type createSessionRequest struct {
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	Items           []itemRequest         `json:"items" validate:"omitempty,max=100,dive"`
	Notes           string                `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CreateSession opens a hosted card checkout for the signed-in caller and
// returns the processor URL to redirect to.
func CreateSession(svc checkout.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok || identity.UserID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to pay by card"))
			return
		}
		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		items := toItemInputs(payload.Items)
		if len(items) == 0 && carts != nil {
			cartID, err := middleware.CartID(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			view, err := carts.Get(ctx, cartID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			items = viewItems(view)
		}

		result, err := svc.CreateSession(ctx, checkout.CreateSessionInput{
			UserID:          identity.UserID,
			Email:           identity.Email,
			Items:           items,
			ShippingAddress: payload.ShippingAddress,
			Notes:           validators.SanitizeString(payload.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// SessionStatus reports the order and processor state for the return page.
func SessionStatus(svc checkout.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		status, err := svc.SessionStatus(r.Context(), userID, chi.URLParam(r, "sessionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if status.Status == enums.OrderStatusPaid.String() && carts != nil {
			cartID, _ := middleware.CartID(r)
			if err := carts.Clear(r.Context(), cartID); err != nil {
				ctx := logg.WithOrderID(r.Context(), status.OrderID.String())
				logg.Error(ctx, "checkout.cart_clear_failed", err)
			}
		}
		responses.WriteSuccess(w, status)
	}
}
