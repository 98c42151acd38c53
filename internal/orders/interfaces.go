package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	"github.com/forgeformula/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and the stock they
// consume.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	RestockItems(ctx context.Context, items []models.OrderItem) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// methodResolver is satisfied by the payment method registry.
type methodResolver interface {
	GetByProviderKey(ctx context.Context, key string) (*models.PaymentMethod, error)
}
