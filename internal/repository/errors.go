package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientBalance is returned when a wallet debit would take the
	// balance below zero. The debit is rejected atomically.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrInsufficientStock is returned when a stock decrement would take a
	// product's quantity below zero. The decrement is rejected atomically.
	ErrInsufficientStock = errors.New("insufficient product stock")
)
