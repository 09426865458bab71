package repository

import (
	"context"
	"time"

	"marketplace/internal/domain"
)

// UserRepository defines the persistence operations the transaction flows
// need on users. Full account management lives outside this service.
type UserRepository interface {
	// GetByID retrieves a user by ID, excluding soft-deleted rows.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByStripeCustomerID retrieves the user owning a processor customer.
	GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error)

	// UpdatePlan sets the user's plan and next payment date. A nil
	// nextPaymentDate clears the stored date.
	UpdatePlan(ctx context.Context, id string, plan domain.PaymentPlan, nextPaymentDate *time.Time) error

	// SetStripeCustomerID stores the processor customer id for a user.
	SetStripeCustomerID(ctx context.Context, id, customerID string) error

	// SetStripeConnectID stores the connected-account id for a user.
	SetStripeConnectID(ctx context.Context, id, connectID string) error
}
