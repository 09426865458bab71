package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentSource identifies where the funds come from.
type PaymentSource string

const (
	PaymentSourceStripe PaymentSource = "stripe"
	PaymentSourceWallet PaymentSource = "wallet"
)

// PaymentType tags the business purpose of a payment. The dispatcher keys
// its side effects on this value.
type PaymentType string

const (
	PaymentTypeWalletTopUp  PaymentType = "wallet_top_up"
	PaymentTypeBooking      PaymentType = "booking"
	PaymentTypeProduct      PaymentType = "product"
	PaymentTypeWithdrawal   PaymentType = "withdrawal"
	PaymentTypeSubscription PaymentType = "monthly_subscription"
)

// PaymentFlow is the direction of the funds movement relative to the user.
type PaymentFlow string

const (
	PaymentFlowInbound  PaymentFlow = "inbound"
	PaymentFlowOutbound PaymentFlow = "outbound"
)

// Payment records one funds movement attempt. Status transitions
// pending -> success|failed at most once; rows are never deleted.
type Payment struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Amount            decimal.Decimal `json:"amount"`
	Source            PaymentSource   `json:"source"`
	Type              PaymentType     `json:"type"`
	Flow              PaymentFlow     `json:"flow"`
	TypeID            string          `json:"typeId"`
	StripeIntentID    string          `json:"stripeIntentId,omitempty"`
	StripePayoutID    string          `json:"stripePayoutId,omitempty"`
	DestinationBankID string          `json:"destinationBankId,omitempty"`
	SubscriptionID    string          `json:"subscriptionId,omitempty"`
	InvoiceID         string          `json:"invoiceId,omitempty"`
	Status            PaymentStatus   `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ValidSource reports whether s is a known payment source.
func ValidSource(s PaymentSource) bool {
	return s == PaymentSourceStripe || s == PaymentSourceWallet
}

// ValidType reports whether t is a known payment type.
func ValidType(t PaymentType) bool {
	switch t {
	case PaymentTypeWalletTopUp, PaymentTypeBooking, PaymentTypeProduct,
		PaymentTypeWithdrawal, PaymentTypeSubscription:
		return true
	}
	return false
}
