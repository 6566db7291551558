package domain

import (
	"context"
	"errors"
)

type Service interface {
	// EnsureDefault seeds the default template for the account if none exists.
	EnsureDefault(ctx context.Context, email string) error

	// Resolve returns the account's active template, falling back to
	// DefaultTemplate when the account never customized one.
	Resolve(ctx context.Context, email string) (string, error)

	// Update replaces the account's template body.
	Update(ctx context.Context, email, body string) error
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidBody  = errors.New("invalid_body")
)
