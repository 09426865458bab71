package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

const userColumns = `id, email, first_name, last_name, plan, next_payment_date,
	stripe_customer_id, stripe_connect_id, created_at, updated_at`

// GetByID retrieves a user by ID, excluding soft-deleted rows.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_deleted = FALSE`
	return r.getOne(ctx, query, id)
}

// GetByStripeCustomerID retrieves the user owning a processor customer.
func (r *UserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE stripe_customer_id = $1 AND is_deleted = FALSE`
	return r.getOne(ctx, query, customerID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	var nextPaymentDate sql.NullTime
	var customerID, connectID sql.NullString

	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Plan,
		&nextPaymentDate,
		&customerID,
		&connectID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if nextPaymentDate.Valid {
		t := nextPaymentDate.Time
		user.NextPaymentDate = &t
	}
	user.StripeCustomerID = customerID.String
	user.StripeConnectID = connectID.String

	return &user, nil
}

// UpdatePlan sets the user's plan and next payment date.
func (r *UserRepository) UpdatePlan(ctx context.Context, id string, plan domain.PaymentPlan, nextPaymentDate *time.Time) error {
	query := `
		UPDATE users SET plan = $1, next_payment_date = $2, updated_at = NOW()
		WHERE id = $3 AND is_deleted = FALSE
	`

	var date sql.NullTime
	if nextPaymentDate != nil {
		date = sql.NullTime{Time: *nextPaymentDate, Valid: true}
	}

	return r.exec(ctx, query, plan, date, id)
}

// SetStripeCustomerID stores the processor customer id for a user.
func (r *UserRepository) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	query := `
		UPDATE users SET stripe_customer_id = $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = FALSE
	`
	return r.exec(ctx, query, customerID, id)
}

// SetStripeConnectID stores the connected-account id for a user.
func (r *UserRepository) SetStripeConnectID(ctx context.Context, id, connectID string) error {
	query := `
		UPDATE users SET stripe_connect_id = $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = FALSE
	`
	return r.exec(ctx, query, connectID, id)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
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
