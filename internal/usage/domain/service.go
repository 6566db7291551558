package domain

import (
	"context"
	"errors"
)

type AppendRequest struct {
	AccountEmail string         `json:"account_email"`
	InputText    string         `json:"input_text"`
	OutputText   string         `json:"output_text"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	Model        string         `json:"model"`
	Tag          string         `json:"tag"`
	Metadata     map[string]any `json:"metadata"`
}

type ListRequest struct {
	AccountEmail string `json:"account_email"`
	PageSize     int    `json:"page_size"`
}

type ListResponse struct {
	UsageRecords []UsageRecord `json:"usage_records"`
}

type Service interface {
	Append(ctx context.Context, req AppendRequest) (*UsageRecord, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidModel   = errors.New("invalid_model")
	ErrInvalidTokens  = errors.New("invalid_tokens")
)
