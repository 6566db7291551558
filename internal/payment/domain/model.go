package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord marks a payment-provider event as applied. The unique index on
// (provider, provider_event_id) is what makes webhook redelivery idempotent:
// the row insert and the credit grant commit in one transaction.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:1"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:2"`
	SessionID       string         `json:"session_id" gorm:"type:text;not null"`
	AccountEmail    string         `json:"account_email" gorm:"type:text;not null;index"`
	CreditsGranted  int64          `json:"credits_granted" gorm:"not null"`
	Amount          int64          `json:"amount" gorm:"not null"`
	Currency        string         `json:"currency" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	OccurredAt      time.Time      `json:"occurred_at" gorm:"not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
}

func (EventRecord) TableName() string { return "payment_events" }

// CheckoutEvent is the canonical completed-purchase event parsed by adapters.
type CheckoutEvent struct {
	Provider        string
	ProviderEventID string
	SessionID       string
	AccountEmail    string
	Amount          int64
	Currency        string
	OccurredAt      time.Time
	RawPayload      []byte
}

// CheckoutSession is a hosted payment page created for a credit purchase.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentAdapter verifies and parses one provider's webhook deliveries.
type PaymentAdapter interface {
	Provider() string
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*CheckoutEvent, error)
}

// CheckoutClient creates hosted checkout sessions for the credit package.
type CheckoutClient interface {
	CreateSession(ctx context.Context, accountEmail string) (*CheckoutSession, error)
}

// Service applies verified checkout events exactly once.
type Service interface {
	ProcessEvent(ctx context.Context, event *CheckoutEvent) error
}

// WebhookService ingests raw webhook deliveries from the HTTP layer.
type WebhookService interface {
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
}

var (
	ErrInvalidProvider       = errors.New("invalid_provider")
	ErrProviderNotFound      = errors.New("provider_not_found")
	ErrInvalidConfig         = errors.New("invalid_config")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrMissingAccountEmail   = errors.New("missing_account_email")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
)
