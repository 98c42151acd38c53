// Package seed loads a starter catalog and the default payment methods. Every
// insert skips rows whose slug or provider key already exists, so running it
// twice is harmless.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbtypes "github.com/forgeformula/storefront-backend/pkg/db/types"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	"github.com/forgeformula/storefront-backend/pkg/logger"
)

type categorySeed struct {
	Name        string
	Slug        string
	Description string
	Icon        string
	Brand       enums.Brand
}

type productSeed struct {
	Name             string
	Slug             string
	ShortDescription string
	Description      string
	Price            string
	CompareAtPrice   string
	Brand            enums.Brand
	CategorySlug     string
	Stock            int
	Featured         bool
}

var categories = []categorySeed{
	{Name: "Tools", Slug: "tools", Description: "Hand and bench tools", Icon: "wrench", Brand: enums.BrandForge},
	{Name: "Hardware", Slug: "hardware", Description: "Fasteners and fittings", Icon: "bolt", Brand: enums.BrandForge},
	{Name: "Supplies", Slug: "supplies", Description: "Everyday consumables", Icon: "box", Brand: enums.BrandFormula},
	{Name: "Kits", Slug: "kits", Description: "Bundled starter kits", Icon: "package", Brand: enums.BrandFormula},
}

var products = []productSeed{
	{Name: "Forge Widget", Slug: "forge-widget", ShortDescription: "Standard widget", Description: "A dependable widget for daily use.",
		Price: "40.00", CompareAtPrice: "50.00", Brand: enums.BrandForge, CategorySlug: "tools", Stock: 100, Featured: true},
	{Name: "Forge Gadget", Slug: "forge-gadget", ShortDescription: "Compact gadget", Description: "A small gadget that fits any bench.",
		Price: "25.00", Brand: enums.BrandForge, CategorySlug: "tools", Stock: 50},
	{Name: "Forge Bracket", Slug: "forge-bracket", ShortDescription: "Steel bracket", Description: "Steel bracket, pack of four.",
		Price: "12.50", Brand: enums.BrandForge, CategorySlug: "hardware", Stock: 200},
	{Name: "Forge Custom Fitting", Slug: "forge-custom-fitting", ShortDescription: "Made to order", Description: "Priced per order, contact us for a quote.",
		Brand: enums.BrandForge, CategorySlug: "hardware", Stock: 0},
	{Name: "Formula Refill", Slug: "formula-refill", ShortDescription: "Refill pack", Description: "Refill pack of twelve.",
		Price: "18.00", Brand: enums.BrandFormula, CategorySlug: "supplies", Stock: 150, Featured: true},
	{Name: "Formula Starter Kit", Slug: "formula-starter-kit", ShortDescription: "Everything to get going", Description: "Starter kit with the essentials.",
		Price: "120.00", CompareAtPrice: "140.00", Brand: enums.BrandFormula, CategorySlug: "kits", Stock: 20, Featured: true},
}

var paymentMethods = []models.PaymentMethod{
	{Name: "Credit / Debit Card", Type: enums.PaymentMethodTypeCard, Enabled: true, ProviderKey: "stripe", SortOrder: 1,
		Icon: "credit-card", Description: "Pay securely by card."},
	{Name: "Cash App", Type: enums.PaymentMethodTypeManual, Enabled: true, ProviderKey: "cashapp", SortOrder: 2,
		Icon: "dollar-sign", Instructions: "Send the order total and include your order number in the note.",
		Details: models.PaymentMethodDetails{Account: "$storefront", Memo: "order number"}},
	{Name: "Zelle", Type: enums.PaymentMethodTypeManual, Enabled: true, ProviderKey: "zelle", SortOrder: 3,
		Icon: "send", Instructions: "Send the order total and include your order number in the memo.",
		Details: models.PaymentMethodDetails{Account: "payments@example.com", Memo: "order number"}},
	{Name: "Apple Pay", Type: enums.PaymentMethodTypeManual, Enabled: false, ProviderKey: "applepay", SortOrder: 4,
		Icon: "smartphone", Instructions: "Send the order total through Apple Cash.",
		Details: models.PaymentMethodDetails{Account: "+1 555 0100"}},
	{Name: "Crypto", Type: enums.PaymentMethodTypeCrypto, Enabled: true, ProviderKey: "crypto", SortOrder: 5,
		Icon: "bitcoin", FeeNote: "Network fees are paid by the sender.", Instructions: "Send the exact total to the address below.",
		Details: models.PaymentMethodDetails{Address: "0x0000000000000000000000000000000000000000", Network: "ethereum"}},
}

// Run seeds categories, products and payment methods in one transaction.
func Run(ctx context.Context, conn *gorm.DB, logg *logger.Logger) error {
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := seedCategories(tx)
		if err != nil {
			return err
		}
		created, err := seedProducts(tx, ids)
		if err != nil {
			return err
		}
		methods, err := seedPaymentMethods(tx)
		if err != nil {
			return err
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"categories":      len(ids),
			"products":        created,
			"payment_methods": methods,
		}), "seed.completed")
		return nil
	})
}

func seedCategories(tx *gorm.DB) (map[string]uuid.UUID, error) {
	for _, c := range categories {
		row := models.Category{Name: c.Name, Slug: c.Slug, Description: c.Description, Icon: c.Icon, Brand: c.Brand}
		if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).Create(&row).Error; err != nil {
			return nil, fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
	}

	var rows []models.Category
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	ids := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		ids[row.Slug] = row.ID
	}
	return ids, nil
}

func seedProducts(tx *gorm.DB, categoryIDs map[string]uuid.UUID) (int64, error) {
	var created int64
	for _, p := range products {
		row := models.Product{
			Name:             p.Name,
			Slug:             p.Slug,
			ShortDescription: p.ShortDescription,
			Description:      p.Description,
			Brand:            p.Brand,
			Images:           dbtypes.StringList{},
			Stock:            p.Stock,
			Featured:         p.Featured,
			Active:           true,
		}
		if p.Price != "" {
			row.Price = decimal.NewNullDecimal(decimal.RequireFromString(p.Price))
		}
		if p.CompareAtPrice != "" {
			row.CompareAtPrice = decimal.NewNullDecimal(decimal.RequireFromString(p.CompareAtPrice))
		}
		if id, ok := categoryIDs[p.CategorySlug]; ok {
			row.CategoryID = &id
		}
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).Create(&row)
		if res.Error != nil {
			return created, fmt.Errorf("seed product %s: %w", p.Slug, res.Error)
		}
		created += res.RowsAffected
	}
	return created, nil
}

func seedPaymentMethods(tx *gorm.DB) (int64, error) {
	var created int64
	for _, m := range paymentMethods {
		row := m
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "provider_key"}}, DoNothing: true}).Create(&row)
		if res.Error != nil {
			return created, fmt.Errorf("seed payment method %s: %w", m.ProviderKey, res.Error)
		}
		created += res.RowsAffected
	}
	return created, nil
}
