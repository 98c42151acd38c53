package visibility

import (
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
)

// EnsureListed enforces the storefront rules for showing a product: it must
// exist, be active and, when a brand is requested, belong to that brand.
func EnsureListed(product *models.Product, brand *enums.Brand) error {
	if product == nil || !product.Active {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if brand != nil && product.Brand != *brand {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// EnsurePurchasable rejects products that cannot go into a cart or an order.
// Inactive products conflict and unpriced products are inquiry only.
func EnsurePurchasable(product models.Product) error {
	if !product.Active {
		return pkgerrors.New(pkgerrors.CodeConflict, "product unavailable").
			WithDetails(map[string]any{"productId": product.ID.String()})
	}
	if !product.Price.Valid {
		return pkgerrors.New(pkgerrors.CodeInquiryOnly, "product is available by inquiry only").
			WithDetails(map[string]any{"productId": product.ID.String(), "slug": product.Slug})
	}
	return nil
}
