package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item with a stock count.
type Product struct {
	ID         string          `json:"id"`
	BusinessID string          `json:"businessId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	IsDeleted  bool            `json:"-"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
