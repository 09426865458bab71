package repository

import (
	"context"

	"marketplace/internal/domain"
)

// PaymentFilter narrows a payment listing. Zero values mean "any".
type PaymentFilter struct {
	Type   domain.PaymentType
	Source domain.PaymentSource
	Status domain.PaymentStatus
	Flow   domain.PaymentFlow
	Page   int
	Limit  int
}

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByInvoiceID retrieves a payment by its processor invoice id and
	// status. Returns nil if no such payment exists. The status narrows the
	// lookup because one invoice can carry both a failed attempt and the
	// retried success.
	GetByInvoiceID(ctx context.Context, invoiceID string, status domain.PaymentStatus) (*domain.Payment, error)

	// Settle transitions a pending payment to the given terminal status.
	// Returns true only for the caller that won the transition; a payment
	// that is no longer pending is left untouched and false is returned.
	Settle(ctx context.Context, id string, status domain.PaymentStatus) (bool, error)

	// ListByUser returns payments for a user, newest first, along with the
	// total number of matching rows.
	ListByUser(ctx context.Context, userID string, filter PaymentFilter) ([]*domain.Payment, int, error)
}
