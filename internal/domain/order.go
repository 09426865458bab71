package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of a product order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// Order is a product purchase against a business. Settlement flips it to
// paid/COMPLETED and decrements the product's stock by Quantity.
type Order struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	BusinessID    string              `json:"businessId"`
	ProductID     string              `json:"productId"`
	Quantity      int                 `json:"quantity"`
	TotalPrice    decimal.Decimal     `json:"totalPrice"`
	PaymentStatus EntityPaymentStatus `json:"paymentStatus"`
	Status        OrderStatus         `json:"status"`
	IsDeleted     bool                `json:"-"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}
