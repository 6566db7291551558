package domain

import (
	"context"
	"errors"
)

// Service owns the invariant that an account balance equals the sum of its
// grants minus its successful deductions. Deduct and Grant are single
// conditional statements evaluated by the store, so concurrent callers can
// never double-spend a balance.
type Service interface {
	// GetBalance returns the current balance for the account.
	GetBalance(ctx context.Context, email string) (int64, error)

	// Deduct atomically subtracts amount if the balance covers it and
	// returns the balance after the deduction.
	Deduct(ctx context.Context, email string, amount int64) (int64, error)

	// Grant unconditionally adds amount and returns the new balance.
	Grant(ctx context.Context, email string, amount int64) (int64, error)

	// EnsureAccount creates the account with a zero balance if it does
	// not exist yet.
	EnsureAccount(ctx context.Context, email string) error
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrInsufficientCredit = errors.New("insufficient_credit")
	ErrStoreUnavailable   = errors.New("store_unavailable")
)
