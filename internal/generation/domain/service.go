// Package domain defines the metered generation gateway contract.
package domain

import (
	"context"
	"errors"
)

type GenerateRequest struct {
	AccountEmail string `json:"account_email"`
	InputText    string `json:"input_text"`
	Model        string `json:"model"`
	Tag          string `json:"tag"`
}

type GenerateResult struct {
	OutputText       string `json:"output_text"`
	InputTokens      int    `json:"input_tokens"`
	OutputTokens     int    `json:"output_tokens"`
	CreditsSpent     int64  `json:"credits_spent"`
	RemainingCredits int64  `json:"remaining_credits"`
}

type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

var (
	ErrInvalidInput      = errors.New("invalid_input")
	ErrModelNotSupported = errors.New("model_not_supported")
	ErrCreditExhausted   = errors.New("credit_exhausted")
	ErrGenerationFailed  = errors.New("generation_failed")
	ErrRateLimited       = errors.New("rate_limited")
)
