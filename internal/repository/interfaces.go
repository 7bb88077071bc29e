package repository

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/models"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)

	// DecrementQuantity reduces stock after a confirmed checkout.
	DecrementQuantity(ctx context.Context, id uuid.UUID, by int) error

	// Provisioning hooks, used only by offline commands.
	ListMissingImages(ctx context.Context, limit int) ([]models.Product, error)
	SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error
}

type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)

	// Add inserts a row for (userID, productID) or atomically increments the
	// existing one. Reports true when a new row was inserted.
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (inserted bool, err error)

	// Remove deletes by item id and is idempotent.
	Remove(ctx context.Context, itemID uuid.UUID) error

	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error

	// Clear deletes all of a user's rows. Idempotent.
	Clear(ctx context.Context, userID uuid.UUID) error
}

type CouponRepository interface {
	// GetActiveByCode normalizes the code to uppercase and matches only
	// active coupons. Inactive and missing coupons both yield ErrNotFound.
	GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListActive(ctx context.Context) ([]models.Coupon, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
