package domain

import "time"

// Business is a marketplace seller. The owner's wallet receives credits when
// bookings and orders against the business settle.
type Business struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
