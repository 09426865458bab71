package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// GetByUserID retrieves the wallet for a user.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallets WHERE user_id = $1
	`

	var wallet domain.Wallet
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &wallet, nil
}

// GetOrCreate retrieves the wallet for a user, creating it with a zero
// balance if it does not exist yet. The insert is idempotent under
// concurrent first access thanks to the unique user_id constraint.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `
		INSERT INTO wallets (id, user_id, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.q.ExecContext(ctx, query, uuid.New().String(), userID); err != nil {
		return nil, err
	}

	return r.GetByUserID(ctx, userID)
}

// Credit atomically increments the user's balance, creating the wallet if
// needed. Mirrors the upsert-increment the dispatcher relies on.
func (r *WalletRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal) error {
	query := `
		INSERT INTO wallets (id, user_id, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
	`

	_, err := r.q.ExecContext(ctx, query, uuid.New().String(), userID, amount)
	return err
}

// Debit atomically decrements the user's balance. The balance check lives in
// the WHERE clause, so two concurrent debits can never both pass it.
func (r *WalletRepository) Debit(ctx context.Context, userID string, amount decimal.Decimal) error {
	query := `
		UPDATE wallets SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
	`

	result, err := r.q.ExecContext(ctx, query, amount, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// Distinguish a missing wallet from an insufficient balance.
	if _, err := r.GetByUserID(ctx, userID); err != nil {
		return err
	}
	return repository.ErrInsufficientBalance
}
