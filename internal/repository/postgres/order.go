package postgres

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// GetByID retrieves an order by ID, excluding soft-deleted rows.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, user_id, business_id, product_id, quantity, total_price,
			payment_status, status, created_at, updated_at
		FROM orders WHERE id = $1 AND is_deleted = FALSE
	`

	var order domain.Order
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.BusinessID,
		&order.ProductID,
		&order.Quantity,
		&order.TotalPrice,
		&order.PaymentStatus,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &order, nil
}

// MarkPaid sets the order to paid/COMPLETED.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	query := `
		UPDATE orders SET payment_status = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND is_deleted = FALSE
	`

	result, err := r.q.ExecContext(ctx, query, domain.EntityPaymentPaid, domain.OrderCompleted, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
