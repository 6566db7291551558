package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/meddor/scribe/internal/config"
	creditdomain "github.com/meddor/scribe/internal/credit/domain"
	obsmetrics "github.com/meddor/scribe/internal/observability/metrics"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
	"github.com/meddor/scribe/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Cfg        config.Config
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	cfg        config.Config
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		cfg:        p.Cfg,
		obsMetrics: p.ObsMetrics,
	}
}

// ProcessEvent applies a verified checkout event exactly once. The event-seen
// marker and the balance grant commit in the same transaction, so a
// redelivered event either hits the unique index and is ignored, or the whole
// grant rolls back and the provider's retry gets a clean attempt.
func (s *Service) ProcessEvent(ctx context.Context, event *paymentdomain.CheckoutEvent) error {
	if event == nil {
		return paymentdomain.ErrInvalidEvent
	}
	provider := strings.ToLower(strings.TrimSpace(event.Provider))
	eventID := strings.TrimSpace(event.ProviderEventID)
	email := strings.ToLower(strings.TrimSpace(event.AccountEmail))
	if provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if eventID == "" || strings.TrimSpace(event.SessionID) == "" {
		return paymentdomain.ErrInvalidEvent
	}
	if email == "" {
		return paymentdomain.ErrMissingAccountEmail
	}
	if len(event.RawPayload) > 0 && !json.Valid(event.RawPayload) {
		return paymentdomain.ErrInvalidPayload
	}

	credits := s.cfg.CreditPackageSize
	now := time.Now().UTC()
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	record := paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        provider,
		ProviderEventID: eventID,
		SessionID:       strings.TrimSpace(event.SessionID),
		AccountEmail:    email,
		CreditsGranted:  credits,
		Amount:          event.Amount,
		Currency:        event.Currency,
		Payload:         datatypes.JSON(event.RawPayload),
		OccurredAt:      occurredAt,
		ReceivedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "provider"},
				{Name: "provider_event_id"},
			},
			DoNothing: true,
		}).Create(&record)
		if result.Error != nil {
			if db.IsDuplicateKeyErr(result.Error) {
				return paymentdomain.ErrEventAlreadyProcessed
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return paymentdomain.ErrEventAlreadyProcessed
		}

		grant := tx.Exec(
			`UPDATE accounts
			 SET credit_balance = credit_balance + ?, updated_at = ?
			 WHERE email = ?`,
			credits,
			now,
			email,
		)
		if grant.Error != nil {
			return grant.Error
		}
		if grant.RowsAffected == 0 {
			return creditdomain.ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.obsMetrics.RecordCreditsGranted(credits)
	s.log.Info("credit package granted",
		zap.String("provider", provider),
		zap.String("event_id", eventID),
		zap.String("email", email),
		zap.Int64("credits", credits),
	)
	return nil
}
