package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/models"
)

type couponRepo struct {
	db *pgxpool.Pool
}

func NewCouponRepository(db *pgxpool.Pool) CouponRepository {
	return &couponRepo{db: db}
}

// NormalizeCode is the canonical form coupon codes are stored and matched in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *couponRepo) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: coupon code cannot be empty", ErrInvalidInput)
	}

	sql := `
		SELECT id, code, type, value, ativo
		FROM coupons
		WHERE code = $1 AND ativo = TRUE`

	var coupon models.Coupon
	err := r.db.QueryRow(ctx, sql, normalized).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Type,
		&coupon.Value,
		&coupon.Active,
	)
	if err != nil {
		// An inactive coupon and a missing one look the same to callers.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up coupon %s: %w", normalized, err)
	}

	return &coupon, nil
}

func (r *couponRepo) ListActive(ctx context.Context) ([]models.Coupon, error) {
	sql := `
		SELECT id, code, type, value, ativo
		FROM coupons
		WHERE ativo = TRUE
		ORDER BY code`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list active coupons: %w", err)
	}
	defer rows.Close()

	var coupons []models.Coupon

	for rows.Next() {
		var c models.Coupon
		err := rows.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.Active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return coupons, nil
}
