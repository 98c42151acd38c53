package middleware

import (
	"net/http"

	"github.com/forgeformula/storefront-backend/api/responses"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/logger"
)

// AdminAllowList decides whether a user id may use the admin surface.
type AdminAllowList map[string]struct{}

func (a AdminAllowList) Allows(userID string) bool {
	if userID == "" {
		return false
	}
	_, ok := a[userID]
	return ok
}

// RequireAdmin answers 401 for anonymous callers and 403 for authenticated
// callers outside the allow-list.
func RequireAdmin(allow AdminAllowList, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !allow.Allows(userID) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
