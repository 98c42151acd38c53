package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forgeformula/storefront-backend/internal/repo"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
)

// ProductFilter narrows product listings. Zero values mean no filter.
type ProductFilter struct {
	Brand        *enums.Brand
	CategorySlug string
	FeaturedOnly bool
}

// Repository reads the catalog tables and writes reviews.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func (r *Repository) ListCategories(ctx context.Context, brand *enums.Brand) ([]models.Category, error) {
	q := r.DB(ctx).Model(&models.Category{})
	if brand != nil {
		q = q.Where("brand = ?", *brand)
	}
	var categories []models.Category
	if err := q.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListProducts returns active products newest first.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := r.DB(ctx).Model(&models.Product{}).
		Preload("Category").
		Where("products.active = ?", true)
	if filter.Brand != nil {
		q = q.Where("products.brand = ?", *filter.Brand)
	}
	if filter.FeaturedOnly {
		q = q.Where("products.featured = ?", true)
	}
	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}

	var products []models.Product
	if err := q.Order("products.created_at DESC").Order("products.id DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindActiveBySlug returns gorm.ErrRecordNotFound for unknown or inactive slugs.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Preload("Category").
		Where("slug = ? AND active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs includes inactive rows so callers can reject them explicitly.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.DB(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *Repository) CreateReview(ctx context.Context, review *models.Review) error {
	return r.DB(ctx).Create(review).Error
}

// HasPurchased reports whether the user has a paid (or later) order that
// contains the product.
func (r *Repository) HasPurchased(ctx context.Context, userID string, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Where("orders.status IN ?", []enums.OrderStatus{
			enums.OrderStatusPaid,
			enums.OrderStatusShipped,
			enums.OrderStatusCompleted,
		}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
