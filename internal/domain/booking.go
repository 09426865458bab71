package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityPaymentStatus is the payment state carried by bookings and orders.
type EntityPaymentStatus string

const (
	EntityPaymentPending EntityPaymentStatus = "pending"
	EntityPaymentPaid    EntityPaymentStatus = "paid"
	EntityPaymentFailed  EntityPaymentStatus = "failed"
)

// BookingStatus is the approval state of a booking.
type BookingStatus string

const (
	BookingAwaitingApproval BookingStatus = "AWAITING_APPROVAL"
	BookingApproved         BookingStatus = "APPROVED"
	BookingRejected         BookingStatus = "REJECTED"
)

// Booking is a service reservation against a business. The dispatcher flips
// it to paid/APPROVED when the related payment settles.
type Booking struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	BusinessID    string              `json:"businessId"`
	ServiceID     string              `json:"serviceId"`
	TotalPrice    decimal.Decimal     `json:"totalPrice"`
	BookingDate   time.Time           `json:"bookingDate"`
	PaymentStatus EntityPaymentStatus `json:"paymentStatus"`
	Status        BookingStatus       `json:"status"`
	IsDeleted     bool                `json:"-"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}
