package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/forgeformula/storefront-backend/pkg/db/types"
	"github.com/forgeformula/storefront-backend/pkg/enums"
)

// Product is a catalog listing. A null Price marks an inquire-only product.
type Product struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name             string              `gorm:"column:name;not null"`
	Slug             string              `gorm:"column:slug;not null;uniqueIndex"`
	Description      string              `gorm:"column:description"`
	ShortDescription string              `gorm:"column:short_description"`
	Price            decimal.NullDecimal `gorm:"column:price;type:numeric(10,2)"`
	CompareAtPrice   decimal.NullDecimal `gorm:"column:compare_at_price;type:numeric(10,2)"`
	CategoryID       *uuid.UUID          `gorm:"column:category_id;type:uuid;index"`
	Category         *Category           `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Brand            enums.Brand         `gorm:"column:brand;not null"`
	ImageURL         string              `gorm:"column:image_url"`
	Images           dbtypes.StringList  `gorm:"column:images;type:jsonb"`
	Stock            int                 `gorm:"column:stock;not null"`
	SKU              string              `gorm:"column:sku"`
	Featured         bool                `gorm:"column:featured;not null"`
	Active           bool                `gorm:"column:active;not null"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Purchasable reports whether the product has a price and is listed.
func (p Product) Purchasable() bool {
	return p.Active && p.Price.Valid
}
