package repository

import (
	"context"

	"marketplace/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// GetByID retrieves a booking by ID, excluding soft-deleted rows.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// MarkPaid sets the booking to paid/APPROVED.
	MarkPaid(ctx context.Context, id string) error
}

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// GetByID retrieves an order by ID, excluding soft-deleted rows.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// MarkPaid sets the order to paid/COMPLETED.
	MarkPaid(ctx context.Context, id string) error
}

// ProductRepository defines the persistence operations for products.
type ProductRepository interface {
	// GetByID retrieves a product by ID, excluding soft-deleted rows.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// DecrementQuantity atomically reduces the product's stock. Fails with
	// ErrInsufficientStock if the stock is lower than by; the quantity is
	// unchanged in that case.
	DecrementQuantity(ctx context.Context, id string, by int) error
}

// BusinessRepository defines the persistence operations for businesses.
type BusinessRepository interface {
	// GetByID retrieves a business by ID, excluding soft-deleted rows.
	GetByID(ctx context.Context, id string) (*domain.Business, error)
}
