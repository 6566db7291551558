// Package domain defines the provider-agnostic text-completion interface.
package domain

import (
	"context"
	"errors"
)

type CompletionRequest struct {
	System     string
	UserPrompt string
	Model      string
	MaxTokens  int
}

type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is an external text-generation service. Complete must classify a
// transient capacity failure as ErrOverloaded; every other failure is
// terminal for the caller.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

var (
	// ErrOverloaded marks a retryable provider capacity error.
	ErrOverloaded = errors.New("provider_overloaded")

	ErrInvalidResponse  = errors.New("provider_invalid_response")
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidConfig    = errors.New("provider_invalid_config")
)
