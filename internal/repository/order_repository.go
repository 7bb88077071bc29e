package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/models"
)

type orderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &orderRepo{db: db}
}

// Create writes a finalized order. Items are stored as a JSONB snapshot so
// later product changes never alter order history.
func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order cannot be nil", ErrInvalidInput)
	}
	if order.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order must have at least one item", ErrInvalidInput)
	}
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", ErrInvalidInput)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item price cannot be negative", ErrInvalidInput)
		}
	}
	if order.Total < 0 || order.Shipping < 0 {
		return fmt.Errorf("%w: total and frete cannot be negative", ErrInvalidInput)
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	sql := `
		INSERT INTO orders (user_id, items, total, frete, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err = r.db.QueryRow(ctx, sql,
		order.UserID,
		itemsJSON,
		order.Total,
		order.Shipping,
		order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: order id cannot be empty", ErrInvalidInput)
	}

	sql := `
		SELECT id, user_id, items, total, frete, created_at
		FROM orders
		WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	return order, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}

	sql := `
		SELECT id, user_id, items, total, frete, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return orders, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order     models.Order
		itemsJSON []byte
	)

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&itemsJSON,
		&order.Total,
		&order.Shipping,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	return &order, nil
}
