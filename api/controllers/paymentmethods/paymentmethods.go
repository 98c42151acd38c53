package paymentmethods

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/api/responses"
	"github.com/forgeformula/storefront-backend/api/validators"
	pmsvc "github.com/forgeformula/storefront-backend/internal/paymentmethods"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
)

type detailsRequest struct {
	Account      string `json:"account,omitempty" validate:"omitempty,max=200"`
	Memo         string `json:"memo,omitempty" validate:"omitempty,max=200"`
	Address      string `json:"address,omitempty" validate:"omitempty,max=200"`
	Network      string `json:"network,omitempty" validate:"omitempty,max=64"`
	RedirectHint string `json:"redirectHint,omitempty" validate:"omitempty,max=500"`
}

func (d detailsRequest) model() models.PaymentMethodDetails {
	return models.PaymentMethodDetails{
		Account:      d.Account,
		Memo:         d.Memo,
		Address:      d.Address,
		Network:      d.Network,
		RedirectHint: d.RedirectHint,
	}
}

type createRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Type         string          `json:"type" validate:"required,oneof=card manual external crypto"`
	Enabled      *bool           `json:"enabled"`
	Description  string          `json:"description" validate:"max=500"`
	Instructions string          `json:"instructions" validate:"max=2000"`
	Icon         string          `json:"icon" validate:"max=100"`
	FeeNote      string          `json:"feeNote" validate:"max=200"`
	SortOrder    int             `json:"sortOrder" validate:"gte=0,lte=10000"`
	ProviderKey  string          `json:"providerKey" validate:"required,max=64"`
	Details      *detailsRequest `json:"details"`
}

type updateRequest struct {
	Name         *string         `json:"name" validate:"omitempty,max=100"`
	Type         *string         `json:"type" validate:"omitempty,oneof=card manual external crypto"`
	Enabled      *bool           `json:"enabled"`
	Description  *string         `json:"description" validate:"omitempty,max=500"`
	Instructions *string         `json:"instructions" validate:"omitempty,max=2000"`
	Icon         *string         `json:"icon" validate:"omitempty,max=100"`
	FeeNote      *string         `json:"feeNote" validate:"omitempty,max=200"`
	SortOrder    *int            `json:"sortOrder" validate:"omitempty,gte=0,lte=10000"`
	ProviderKey  *string         `json:"providerKey" validate:"omitempty,max=64"`
	Details      *detailsRequest `json:"details"`
}

// List returns the enabled methods in display order.
func List(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
			return
		}
		methods, err := svc.ListEnabled(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pmsvc.NewPublicDTOs(methods))
	}
}

// Get resolves a method by id even when it is disabled, so existing orders
// can still render their payment instructions.
func Get(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method, ok := load(w, r, svc, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, pmsvc.NewPublicDTO(*method))
	}
}

func AdminList(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
			return
		}
		methods, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pmsvc.NewAdminDTOs(methods))
	}
}

func AdminGet(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method, ok := load(w, r, svc, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, pmsvc.NewAdminDTO(*method))
	}
}

func AdminCreate(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
			return
		}
		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := pmsvc.CreateInput{
			Name:         payload.Name,
			Type:         enums.PaymentMethodType(payload.Type),
			Enabled:      payload.Enabled,
			Description:  payload.Description,
			Instructions: payload.Instructions,
			Icon:         payload.Icon,
			FeeNote:      payload.FeeNote,
			SortOrder:    payload.SortOrder,
			ProviderKey:  payload.ProviderKey,
		}
		if payload.Details != nil {
			input.Details = payload.Details.model()
		}

		method, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pmsvc.NewAdminDTO(*method))
	}
}

// AdminUpdate applies a partial update; omitted fields keep their value.
func AdminUpdate(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
			return
		}
		id, err := methodID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := pmsvc.UpdateInput{
			Name:         payload.Name,
			Enabled:      payload.Enabled,
			Description:  payload.Description,
			Instructions: payload.Instructions,
			Icon:         payload.Icon,
			FeeNote:      payload.FeeNote,
			SortOrder:    payload.SortOrder,
			ProviderKey:  payload.ProviderKey,
		}
		if payload.Type != nil {
			kind := enums.PaymentMethodType(*payload.Type)
			input.Type = &kind
		}
		if payload.Details != nil {
			details := payload.Details.model()
			input.Details = &details
		}

		method, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pmsvc.NewAdminDTO(*method))
	}
}

func AdminDelete(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
			return
		}
		id, err := methodID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func load(w http.ResponseWriter, r *http.Request, svc pmsvc.Service, logg *logger.Logger) (*models.PaymentMethod, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
		return nil, false
	}
	id, err := methodID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	method, err := svc.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return method, true
}

// methodID maps malformed ids to NOT_FOUND, the same answer as an unknown id.
func methodID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "methodId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}
	return id, nil
}
