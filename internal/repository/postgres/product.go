package postgres

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

// ProductRepository is a PostgreSQL implementation of repository.ProductRepository.
type ProductRepository struct {
	q Querier
}

// NewProductRepository creates a new PostgreSQL product repository.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{q: db}
}

// GetByID retrieves a product by ID, excluding soft-deleted rows.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, business_id, name, price, quantity, created_at, updated_at
		FROM products WHERE id = $1 AND is_deleted = FALSE
	`

	var product domain.Product
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.BusinessID,
		&product.Name,
		&product.Price,
		&product.Quantity,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// DecrementQuantity atomically reduces the product's stock. The quantity
// guard in the WHERE clause keeps the decrement from underflowing; a short
// stock is reported as ErrInsufficientStock rather than a constraint
// violation.
func (r *ProductRepository) DecrementQuantity(ctx context.Context, id string, by int) error {
	query := `
		UPDATE products SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = FALSE AND quantity >= $1
	`

	result, err := r.q.ExecContext(ctx, query, by, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		var exists bool
		check := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_deleted = FALSE)`
		if err := r.q.QueryRowContext(ctx, check, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return repository.ErrInsufficientStock
		}
		return repository.ErrNotFound
	}

	return nil
}
