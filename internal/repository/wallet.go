package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain"
)

// WalletRepository defines the persistence operations for wallets.
// Credit and Debit are single atomic statements: concurrent calls can never
// lose an update or drive the balance negative.
type WalletRepository interface {
	// GetByUserID retrieves the wallet for a user.
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)

	// GetOrCreate retrieves the wallet for a user, creating it with a zero
	// balance if it does not exist yet.
	GetOrCreate(ctx context.Context, userID string) (*domain.Wallet, error)

	// Credit atomically increments the user's balance, creating the wallet
	// if needed.
	Credit(ctx context.Context, userID string, amount decimal.Decimal) error

	// Debit atomically decrements the user's balance. Fails with
	// ErrInsufficientBalance if the balance is lower than amount, or
	// ErrNotFound if the user has no wallet; the balance is unchanged in
	// both cases.
	Debit(ctx context.Context, userID string, amount decimal.Decimal) error
}
