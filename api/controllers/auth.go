package controllers

import (
	"net/http"

	"github.com/forgeformula/storefront-backend/api/middleware"
	"github.com/forgeformula/storefront-backend/api/responses"
	"github.com/forgeformula/storefront-backend/pkg/auth"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
)

type authUserResponse struct {
	auth.Identity
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}

// AuthUser returns the caller profile carried by the access token.
func AuthUser(admins middleware.AdminAllowList, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok || identity.UserID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		responses.WriteSuccess(w, authUserResponse{
			Identity:    identity,
			DisplayName: identity.DisplayName(),
			IsAdmin:     admins.Allows(identity.UserID),
		})
	}
}

// AdminCheck reports whether the caller may use the admin surface.
func AdminCheck(admins middleware.AdminAllowList, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		responses.WriteSuccess(w, map[string]bool{"isAdmin": admins.Allows(userID)})
	}
}
