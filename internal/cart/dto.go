package cart

import (
	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/pkg/money"
)

type LineDTO struct {
	ProductID uuid.UUID `json:"productId"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Price     string    `json:"price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"lineTotal"`
	Stock     int       `json:"stock"`
}

// ViewDTO is the cart as returned by the API, prices as two-place strings.
type ViewDTO struct {
	Items                 []LineDTO `json:"items"`
	Count                 int       `json:"count"`
	Subtotal              string    `json:"subtotal"`
	Shipping              string    `json:"shipping"`
	Tax                   string    `json:"tax"`
	Total                 string    `json:"total"`
	FreeShippingRemaining string    `json:"freeShippingRemaining"`
}

func NewViewDTO(v *View) ViewDTO {
	items := make([]LineDTO, 0, len(v.Lines))
	for _, l := range v.Lines {
		items = append(items, LineDTO{
			ProductID: l.Product.ID,
			Slug:      l.Product.Slug,
			Name:      l.Product.Name,
			ImageURL:  l.Product.ImageURL,
			Price:     money.String(l.UnitPrice()),
			Quantity:  l.Quantity,
			LineTotal: money.String(l.LineTotal()),
			Stock:     l.Product.Stock,
		})
	}
	return ViewDTO{
		Items:                 items,
		Count:                 v.Count,
		Subtotal:              money.String(v.Totals.Subtotal),
		Shipping:              money.String(v.Totals.Shipping),
		Tax:                   money.String(v.Totals.Tax),
		Total:                 money.String(v.Totals.Total),
		FreeShippingRemaining: money.String(v.FreeShippingRemaining),
	}
}
