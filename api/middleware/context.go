package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/pkg/auth"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
)

// CartIDHeader carries the anonymous cart id for callers without a token.
const CartIDHeader = "X-Cart-Id"

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxIdentity contextKey = "identity"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext returns the caller profile attached by OptionalAuth.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	if ctx == nil {
		return auth.Identity{}, false
	}
	identity, ok := ctx.Value(ctxIdentity).(auth.Identity)
	return identity, ok
}

// WithIdentity injects the caller profile into the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxIdentity, identity)
	return context.WithValue(ctx, ctxUserID, identity.UserID)
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return WithIdentity(ctx, auth.Identity{UserID: userID})
}

// CartID resolves the cart key for the request: signed-in callers own
// "user:<id>", anonymous callers identify a cart with a uuid X-Cart-Id header.
func CartID(r *http.Request) (string, error) {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	raw := strings.TrimSpace(r.Header.Get(CartIDHeader))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart id required").
			WithDetails(map[string]any{CartIDHeader: "is required for anonymous carts"})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cart id").
			WithDetails(map[string]any{CartIDHeader: "must be a uuid"})
	}
	return "anon:" + id.String(), nil
}
