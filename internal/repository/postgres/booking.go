package postgres

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// GetByID retrieves a booking by ID, excluding soft-deleted rows.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT id, user_id, business_id, service_id, total_price, booking_date,
			payment_status, status, created_at, updated_at
		FROM bookings WHERE id = $1 AND is_deleted = FALSE
	`

	var booking domain.Booking
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.BusinessID,
		&booking.ServiceID,
		&booking.TotalPrice,
		&booking.BookingDate,
		&booking.PaymentStatus,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &booking, nil
}

// MarkPaid sets the booking to paid/APPROVED.
func (r *BookingRepository) MarkPaid(ctx context.Context, id string) error {
	query := `
		UPDATE bookings SET payment_status = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND is_deleted = FALSE
	`

	result, err := r.q.ExecContext(ctx, query, domain.EntityPaymentPaid, domain.BookingApproved, id)
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
