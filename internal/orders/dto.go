package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/internal/pricing"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/money"
	"github.com/forgeformula/storefront-backend/pkg/types"
)

// TotalsDTO renders a price breakdown as fixed two-place strings.
type TotalsDTO struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

func NewTotalsDTO(t pricing.Totals) TotalsDTO {
	return TotalsDTO{
		Subtotal: money.String(t.Subtotal),
		Shipping: money.String(t.Shipping),
		Tax:      money.String(t.Tax),
		Total:    money.String(t.Total),
	}
}

type OrderItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
	LineTotal string    `json:"lineTotal"`
}

type OrderDTO struct {
	ID               uuid.UUID             `json:"id"`
	Status           string                `json:"status"`
	Subtotal         string                `json:"subtotal"`
	Shipping         string                `json:"shipping"`
	Tax              string                `json:"tax"`
	Total            string                `json:"total"`
	GuestEmail       *string               `json:"guestEmail,omitempty"`
	ShippingAddress  types.ShippingAddress `json:"shippingAddress"`
	PaymentMethodID  *uuid.UUID            `json:"paymentMethodId,omitempty"`
	PaymentSessionID *string               `json:"paymentSessionId,omitempty"`
	TrackingNumber   *string               `json:"trackingNumber,omitempty"`
	Notes            *string               `json:"notes,omitempty"`
	Items            []OrderItemDTO        `json:"items"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

func NewOrderDTO(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:               o.ID,
		Status:           o.Status.String(),
		Subtotal:         money.String(o.Subtotal),
		Shipping:         money.String(o.Shipping),
		Tax:              money.String(o.Tax),
		Total:            money.String(o.Total),
		GuestEmail:       o.GuestEmail,
		ShippingAddress:  o.ShippingAddress,
		PaymentMethodID:  o.PaymentMethodID,
		PaymentSessionID: o.PaymentSessionID,
		TrackingNumber:   o.TrackingNumber,
		Notes:            o.Notes,
		Items:            make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			Quantity:  item.Quantity,
			Price:     money.String(item.Price),
			LineTotal: money.String(item.LineTotal()),
		})
	}
	return dto
}
