package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/forgeformula/storefront-backend/pkg/enums"
	"github.com/forgeformula/storefront-backend/pkg/types"
)

// Order is one checkout submission. UserID is nil for guest orders.
type Order struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID           *string               `gorm:"column:user_id;index"`
	GuestEmail       *string               `gorm:"column:guest_email"`
	Status           enums.OrderStatus     `gorm:"column:status;not null"`
	Subtotal         decimal.Decimal       `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Shipping         decimal.Decimal       `gorm:"column:shipping;type:numeric(10,2);not null"`
	Tax              decimal.Decimal       `gorm:"column:tax;type:numeric(10,2);not null"`
	Total            decimal.Decimal       `gorm:"column:total;type:numeric(10,2);not null"`
	ShippingAddress  types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	PaymentMethodID  *uuid.UUID            `gorm:"column:payment_method_id;type:uuid"`
	PaymentSessionID *string               `gorm:"column:payment_session_id;uniqueIndex"`
	TrackingNumber   *string               `gorm:"column:tracking_number"`
	Notes            *string               `gorm:"column:notes"`
	Items            []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether the order belongs to the given user.
func (o Order) OwnedBy(userID string) bool {
	return o.UserID != nil && userID != "" && *o.UserID == userID
}
