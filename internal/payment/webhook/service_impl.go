package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	obsmetrics "github.com/meddor/scribe/internal/observability/metrics"
	"github.com/meddor/scribe/internal/payment/adapters"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	PaymentSvc paymentdomain.Service
	Adapters   *adapters.Registry
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	paymentSvc paymentdomain.Service
	adapters   *adapters.Registry
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.WebhookService {
	return &Service{
		log:        p.Log.Named("payment.webhook"),
		paymentSvc: p.PaymentSvc,
		adapters:   p.Adapters,
		obsMetrics: p.ObsMetrics,
	}
}

// IngestWebhook fails closed: nothing is granted unless the signature
// verifies against the configured webhook secret.
func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return paymentdomain.ErrInvalidProvider
	}

	adapter, err := s.adapters.Adapter(provider)
	if err != nil {
		return err
	}
	if !json.Valid(payload) {
		s.obsMetrics.RecordWebhookEvent("invalid_payload")
		return paymentdomain.ErrInvalidPayload
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.obsMetrics.RecordWebhookEvent("invalid_signature")
		s.log.Warn("webhook signature verification failed",
			zap.String("provider", provider),
		)
		return err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.obsMetrics.RecordWebhookEvent("ignored")
			return nil
		}
		if errors.Is(err, paymentdomain.ErrMissingAccountEmail) {
			s.obsMetrics.RecordWebhookEvent("missing_email")
			s.log.Warn("webhook event carries no account email",
				zap.String("provider", provider),
			)
		}
		return err
	}
	if event.RawPayload == nil {
		event.RawPayload = payload
	}

	if err := s.paymentSvc.ProcessEvent(ctx, event); err != nil {
		if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
			s.obsMetrics.RecordWebhookEvent("duplicate")
			s.log.Info("duplicate webhook delivery ignored",
				zap.String("provider", provider),
				zap.String("event_id", event.ProviderEventID),
			)
		}
		return err
	}

	s.obsMetrics.RecordWebhookEvent("applied")
	return nil
}
