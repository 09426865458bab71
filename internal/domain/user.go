package domain

import "time"

// PaymentPlan is the user's subscription tier.
type PaymentPlan string

const (
	PlanFree    PaymentPlan = "free"
	PlanPremium PaymentPlan = "premium"
)

// User carries the billing-relevant slice of the marketplace user: plan,
// next payment date and the external processor's customer/connect ids.
type User struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	FirstName        string      `json:"firstName"`
	LastName         string      `json:"lastName"`
	Plan             PaymentPlan `json:"plan"`
	NextPaymentDate  *time.Time  `json:"nextPaymentDate,omitempty"`
	StripeCustomerID string      `json:"stripeCustomerId,omitempty"`
	StripeConnectID  string      `json:"stripeConnectId,omitempty"`
	IsDeleted        bool        `json:"-"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// FullName returns the display name used for processor-side records.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
