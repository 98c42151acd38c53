package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forgeformula/storefront-backend/pkg/enums"
)

// Category groups products under one brand.
type Category struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	Name        string      `gorm:"column:name;not null"`
	Slug        string      `gorm:"column:slug;not null;uniqueIndex"`
	Description string      `gorm:"column:description"`
	Icon        string      `gorm:"column:icon"`
	ImageURL    string      `gorm:"column:image_url"`
	Brand       enums.Brand `gorm:"column:brand;not null"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
