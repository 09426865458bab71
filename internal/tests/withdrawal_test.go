package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain"
	"marketplace/internal/service"
	"marketplace/internal/stripe"
)

// ──────────────────────────────────────────────
// WITHDRAWAL EDGE CASES
// ──────────────────────────────────────────────

func withdrawalFixture() *transactionFixture {
	f := newTransactionFixture()
	f.userRepo.AddUser(&domain.User{
		ID:              "user-1",
		Email:           "seller@example.com",
		StripeConnectID: "acct_1",
	})
	f.walletRepo.AddWallet(&domain.Wallet{ID: "w-1", UserID: "user-1", Balance: decimal.NewFromInt(200)})
	f.stripeClient.Account.ExternalAccounts.Data = []stripe.BankAccount{
		{ID: "ba_1", BankName: "Test Bank", Last4: "4242"},
	}
	return f
}

func TestRequestWithdrawal_Succeeds(t *testing.T) {
	t.Parallel()

	f := withdrawalFixture()

	payment, err := f.svc.RequestWithdrawal(context.Background(), service.WithdrawalRequest{
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(80),
		BankAccountID: "ba_1",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if payment.Type != domain.PaymentTypeWithdrawal {
		t.Errorf("expected withdrawal type, got %s", payment.Type)
	}
	if payment.Flow != domain.PaymentFlowOutbound {
		t.Errorf("expected outbound flow, got %s", payment.Flow)
	}
	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected pending until payout confirms, got %s", payment.Status)
	}
	if payment.StripePayoutID == "" {
		t.Error("expected payout id on payment")
	}

	if !f.walletRepo.Balance("user-1").Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected balance 120 after debit, got %s", f.walletRepo.Balance("user-1"))
	}

	// Payout goes out in cents on the connected account.
	if f.stripeClient.LastPayoutParams.Amount != 8000 {
		t.Errorf("expected payout of 8000 cents, got %d", f.stripeClient.LastPayoutParams.Amount)
	}
	if f.stripeClient.LastPayoutParams.StripeAccount != "acct_1" {
		t.Errorf("expected payout on acct_1, got %s", f.stripeClient.LastPayoutParams.StripeAccount)
	}
	if f.stripeClient.LastPayoutParams.Destination != "ba_1" {
		t.Errorf("expected destination ba_1, got %s", f.stripeClient.LastPayoutParams.Destination)
	}
}

func TestRequestWithdrawal_InsufficientBalance_Fails(t *testing.T) {
	t.Parallel()

	f := withdrawalFixture()

	_, err := f.svc.RequestWithdrawal(context.Background(), service.WithdrawalRequest{
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(500),
		BankAccountID: "ba_1",
	})
	if !errors.Is(err, service.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}
	if atomic.LoadInt32(&f.stripeClient.CreatePayoutCallCount) != 0 {
		t.Error("expected no payout attempt")
	}
}

func TestRequestWithdrawal_NoConnectedAccount_Fails(t *testing.T) {
	t.Parallel()

	f := withdrawalFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-2", Email: "new@example.com"})
	f.walletRepo.AddWallet(&domain.Wallet{ID: "w-2", UserID: "user-2", Balance: decimal.NewFromInt(100)})

	_, err := f.svc.RequestWithdrawal(context.Background(), service.WithdrawalRequest{
		UserID:        "user-2",
		Amount:        decimal.NewFromInt(50),
		BankAccountID: "ba_1",
	})
	if !errors.Is(err, service.ErrNoConnectedAccount) {
		t.Fatalf("expected ErrNoConnectedAccount, got: %v", err)
	}
}

func TestRequestWithdrawal_BankAccountNotLinked_Fails(t *testing.T) {
	t.Parallel()

	f := withdrawalFixture()

	_, err := f.svc.RequestWithdrawal(context.Background(), service.WithdrawalRequest{
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(50),
		BankAccountID: "ba_unknown",
	})
	if !errors.Is(err, service.ErrBankAccountNotLinked) {
		t.Fatalf("expected ErrBankAccountNotLinked, got: %v", err)
	}
	if atomic.LoadInt32(&f.walletRepo.DebitCallCount) != 0 {
		t.Error("expected no debit for unlinked bank account")
	}
}

func TestRequestWithdrawal_PayoutError_LeavesBalanceUntouched(t *testing.T) {
	t.Parallel()

	f := withdrawalFixture()
	f.stripeClient.CreatePayoutError = errors.New("processor unavailable")

	_, err := f.svc.RequestWithdrawal(context.Background(), service.WithdrawalRequest{
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(80),
		BankAccountID: "ba_1",
	})
	if err == nil {
		t.Fatal("expected error when payout fails")
	}

	if !f.walletRepo.Balance("user-1").Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected balance unchanged at 200, got %s", f.walletRepo.Balance("user-1"))
	}
	if atomic.LoadInt32(&f.paymentRepo.CreateCallCount) != 0 {
		t.Error("expected no payment record for failed payout")
	}
}

func TestRequestWithdrawal_InvalidInput_Fails(t *testing.T) {
	t.Parallel()

	f := withdrawalFixture()

	if _, err := f.svc.RequestWithdrawal(context.Background(), service.WithdrawalRequest{
		Amount:        decimal.NewFromInt(10),
		BankAccountID: "ba_1",
	}); !errors.Is(err, service.ErrInvalidUserID) {
		t.Errorf("expected ErrInvalidUserID, got: %v", err)
	}

	if _, err := f.svc.RequestWithdrawal(context.Background(), service.WithdrawalRequest{
		UserID:        "user-1",
		Amount:        decimal.Zero,
		BankAccountID: "ba_1",
	}); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got: %v", err)
	}
}
