package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forgeformula/storefront-backend/internal/repo"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
)

// Repository persists payment methods.
type Repository interface {
	List(ctx context.Context, enabledOnly bool) ([]models.PaymentMethod, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	FindByProviderKey(ctx context.Context, key string) (*models.PaymentMethod, error)
	Create(ctx context.Context, method *models.PaymentMethod) error
	Save(ctx context.Context, method *models.PaymentMethod) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) List(ctx context.Context, enabledOnly bool) ([]models.PaymentMethod, error) {
	q := r.DB(ctx).Model(&models.PaymentMethod{})
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	var methods []models.PaymentMethod
	if err := q.Order("sort_order ASC").Order("name ASC").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.DB(ctx).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) FindByProviderKey(ctx context.Context, key string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.DB(ctx).First(&method, "provider_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) Create(ctx context.Context, method *models.PaymentMethod) error {
	return r.DB(ctx).Create(method).Error
}

// Save writes every column, zero values included.
func (r *repository) Save(ctx context.Context, method *models.PaymentMethod) error {
	return r.DB(ctx).Save(method).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Delete(&models.PaymentMethod{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
