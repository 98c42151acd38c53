package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forgeformula/storefront-backend/pkg/enums"
)

// PaymentMethodDetails carries the rail specific values used to render
// post-order instructions.
type PaymentMethodDetails struct {
	Account      string `json:"account,omitempty"`
	Memo         string `json:"memo,omitempty"`
	Address      string `json:"address,omitempty"`
	Network      string `json:"network,omitempty"`
	RedirectHint string `json:"redirectHint,omitempty"`
}

// PaymentMethod is an admin-managed payment option shown at checkout.
type PaymentMethod struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Name         string                  `gorm:"column:name;not null"`
	Type         enums.PaymentMethodType `gorm:"column:type;not null"`
	Enabled      bool                    `gorm:"column:enabled;not null"`
	Description  string                  `gorm:"column:description"`
	Instructions string                  `gorm:"column:instructions"`
	Icon         string                  `gorm:"column:icon"`
	FeeNote      string                  `gorm:"column:fee_note"`
	SortOrder    int                     `gorm:"column:sort_order;not null"`
	ProviderKey  string                  `gorm:"column:provider_key;not null;uniqueIndex"`
	Details      PaymentMethodDetails    `gorm:"column:details;type:jsonb;serializer:json"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *PaymentMethod) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
