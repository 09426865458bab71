package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the per-user balance used as an internal funding and settlement
// mechanism. Created lazily on first access; the balance is mutated only via
// atomic credit/debit operations and never goes negative.
type Wallet struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
