package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/models"
)

type cartRepo struct {
	db *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) CartRepository {
	return &cartRepo{db: db}
}

func (r *cartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}

	sql := `
		SELECT
			ci.id,
			ci.user_id,
			ci.product_id,
			ci.quantity,
			ci.created_at,
			p.id,
			COALESCE(p.name, ''),
			p.category,
			p.price,
			p.quantity,
			COALESCE(p.image_url, ''),
			p.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`

	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart for user %s: %w", userID, err)
	}
	defer rows.Close()

	var items []models.CartItem

	for rows.Next() {
		var (
			item    models.CartItem
			product models.Product
		)
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&product.ID,
			&product.Name,
			&product.Category,
			&product.Price,
			&product.Quantity,
			&product.ImageURL,
			&product.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item.Product = &product
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return items, nil
}

// Add relies on the (user_id, product_id) unique constraint: a conflicting
// insert becomes an in-place increment, so two concurrent adds cannot lose an
// update. xmax = 0 distinguishes a fresh insert from an updated row.
func (r *cartRepo) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (bool, error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return false, fmt.Errorf("%w: user and product ids are required", ErrInvalidInput)
	}
	if quantity < 1 {
		return false, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	sql := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING (xmax = 0)`

	var inserted bool
	if err := r.db.QueryRow(ctx, sql, userID, productID, quantity).Scan(&inserted); err != nil {
		return false, fmt.Errorf("failed to add product %s to cart: %w", productID, err)
	}

	return inserted, nil
}

func (r *cartRepo) Remove(ctx context.Context, itemID uuid.UUID) error {
	if itemID == uuid.Nil {
		return fmt.Errorf("%w: item id cannot be empty", ErrInvalidInput)
	}

	// Deleting an id that no longer exists is fine.
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
		return fmt.Errorf("failed to remove cart item %s: %w", itemID, err)
	}

	return nil
}

func (r *cartRepo) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if itemID == uuid.Nil {
		return fmt.Errorf("%w: item id cannot be empty", ErrInvalidInput)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE id = $2`,
		quantity, itemID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart item %s: %w", itemID, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *cartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart for user %s: %w", userID, err)
	}

	return nil
}
