package service

import "errors"

var (
	// ErrInvalidUserID is returned when the user id is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidPaymentID is returned when the payment id is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidAmount is returned when the amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidPaymentSource is returned when the funding source is not a
	// known value.
	ErrInvalidPaymentSource = errors.New("invalid payment source")

	// ErrInvalidPaymentType is returned when the payment type is not a
	// known value.
	ErrInvalidPaymentType = errors.New("invalid payment type")

	// ErrWalletTopUpFromWallet is returned when a wallet top-up names the
	// wallet itself as the funding source.
	ErrWalletTopUpFromWallet = errors.New("cannot top up a wallet from itself")

	// ErrInsufficientBalance is returned when the wallet balance cannot
	// cover the requested amount.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrWalletLocked is returned when another funding operation holds the
	// wallet lock.
	ErrWalletLocked = errors.New("wallet is busy, retry shortly")

	// ErrNoConnectedAccount is returned when a payout is requested for a
	// user without a connected account.
	ErrNoConnectedAccount = errors.New("user does not have a connected account")

	// ErrBankAccountNotLinked is returned when the payout destination is
	// not among the connected account's external accounts.
	ErrBankAccountNotLinked = errors.New("bank account not linked")

	// ErrNoActiveSubscription is returned when a cancellation finds no
	// active subscription for the customer.
	ErrNoActiveSubscription = errors.New("no active subscription found")

	// ErrInvalidWebhookSignature is returned when the webhook signature
	// does not verify against the endpoint secret.
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
)
