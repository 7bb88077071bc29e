package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/models"
)

type productRepo struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `
	id,
	COALESCE(name, ''),
	category,
	price,
	quantity,
	COALESCE(image_url, ''),
	created_at`

func scanProduct(row pgx.Row, p *models.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Price,
		&p.Quantity,
		&p.ImageURL,
		&p.CreatedAt,
	)
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: product id cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product models.Product
	err := scanProduct(r.db.QueryRow(ctx, sql, id), &product)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	return &product, nil
}

func (r *productRepo) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var (
		conds []string
		args  []any
	)

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.MinPrice > 0 {
		args = append(args, filter.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}

	sql := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY " + orderClause(filter.Sort)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// orderClause maps a ProductSort to a fixed ORDER BY fragment. Unknown values
// fall back to recency, which is how the catalog page lists by default.
func orderClause(sort models.ProductSort) string {
	switch sort {
	case models.SortPriceAsc:
		return "price ASC, created_at DESC"
	case models.SortPriceDesc:
		return "price DESC, created_at DESC"
	case models.SortName:
		return "COALESCE(name, category) ASC"
	default:
		return "created_at DESC"
	}
}

func (r *productRepo) Search(ctx context.Context, query string) ([]models.Product, error) {
	sql := `SELECT ` + productColumns + ` FROM products`

	var (
		rows pgx.Rows
		err  error
	)
	if query == "" {
		rows, err = r.db.Query(ctx, sql+" ORDER BY created_at DESC")
	} else {
		pattern := "%" + query + "%"
		rows, err = r.db.Query(ctx,
			sql+` WHERE name ILIKE $1 OR category ILIKE $1 ORDER BY created_at DESC`,
			pattern,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *productRepo) DecrementQuantity(ctx context.Context, id uuid.UUID, by int) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: product id cannot be empty", ErrInvalidInput)
	}
	if by <= 0 {
		return fmt.Errorf("%w: decrement must be positive", ErrInvalidInput)
	}

	sql := `
		UPDATE products
		SET quantity = quantity - $1
		WHERE id = $2 AND quantity >= $1
		RETURNING quantity`

	var remaining int
	err := r.db.QueryRow(ctx, sql, by, id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the product is gone or stock is short; distinguish.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return getErr
			}
			return fmt.Errorf("%w: product %s", ErrNotEnough, id)
		}
		return fmt.Errorf("failed to decrement product %s: %w", id, err)
	}

	return nil
}

func (r *productRepo) ListMissingImages(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 1000
	}

	sql := `SELECT ` + productColumns + `
		FROM products
		WHERE image_url IS NULL OR image_url = ''
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products missing images: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *productRepo) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	if imageURL == "" {
		return fmt.Errorf("%w: image url cannot be empty", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx, `UPDATE products SET image_url = $1 WHERE id = $2`, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to set image url for product %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	var products []models.Product

	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return products, nil
}
