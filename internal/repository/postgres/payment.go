package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

const paymentColumns = `id, user_id, amount, source, type, flow, type_id,
	stripe_intent_id, stripe_payout_id, destination_bank_id,
	subscription_id, invoice_id, status, created_at, updated_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, amount, source, type, flow, type_id,
			stripe_intent_id, stripe_payout_id, destination_bank_id,
			subscription_id, invoice_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.Amount,
		payment.Source,
		payment.Type,
		payment.Flow,
		payment.TypeID,
		nullable(payment.StripeIntentID),
		nullable(payment.StripePayoutID),
		nullable(payment.DestinationBankID),
		nullable(payment.SubscriptionID),
		nullable(payment.InvoiceID),
		payment.Status,
	)

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return payment, nil
}

// GetByInvoiceID retrieves a payment by its processor invoice id and
// status. Returns nil if no such payment exists. A retried invoice leaves a
// failed row next to the eventual success row, so the status is part of the
// lookup.
func (r *PaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string, status domain.PaymentStatus) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = $1 AND status = $2`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, invoiceID, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return payment, nil
}

// Settle transitions a pending payment to the given terminal status.
// The WHERE clause on the current status makes the transition a
// compare-and-swap: only one caller can win it.
func (r *PaymentRepository) Settle(ctx context.Context, id string, status domain.PaymentStatus) (bool, error) {
	query := `
		UPDATE payments SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.ExecContext(ctx, query, status, id, domain.PaymentStatusPending)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ListByUser returns payments for a user, newest first, with the total count.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, filter repository.PaymentFilter) ([]*domain.Payment, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		where += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Flow != "" {
		args = append(args, filter.Flow)
		where += fmt.Sprintf(" AND flow = $%d", len(args))
	}

	var total int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(
		"SELECT "+paymentColumns+" FROM payments %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	var intentID, payoutID, bankID, subID, invoiceID sql.NullString

	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Amount,
		&payment.Source,
		&payment.Type,
		&payment.Flow,
		&payment.TypeID,
		&intentID,
		&payoutID,
		&bankID,
		&subID,
		&invoiceID,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.StripeIntentID = intentID.String
	payment.StripePayoutID = payoutID.String
	payment.DestinationBankID = bankID.String
	payment.SubscriptionID = subID.String
	payment.InvoiceID = invoiceID.String

	return &payment, nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
