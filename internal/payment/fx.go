package payment

import (
	"github.com/meddor/scribe/internal/config"
	"github.com/meddor/scribe/internal/payment/adapters"
	"github.com/meddor/scribe/internal/payment/adapters/stripe"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
	"github.com/meddor/scribe/internal/payment/service"
	"github.com/meddor/scribe/internal/payment/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewAdapterRegistry(cfg config.Config, log *zap.Logger) *adapters.Registry {
	var registered []paymentdomain.PaymentAdapter
	if cfg.StripeWebhookSecret != "" {
		adapter, err := stripe.NewAdapter(cfg.StripeWebhookSecret)
		if err == nil {
			registered = append(registered, adapter)
		}
	}
	if len(registered) == 0 {
		log.Warn("no payment webhook adapters configured")
	}
	return adapters.NewRegistry(registered...)
}

func NewCheckoutClient(cfg config.Config, log *zap.Logger) (paymentdomain.CheckoutClient, error) {
	if cfg.StripeSecretKey == "" {
		log.Warn("stripe secret key not configured, checkout disabled")
		return nil, nil
	}
	return stripe.NewCheckoutClient(cfg, log)
}

var Module = fx.Module("payment.service",
	fx.Provide(
		NewAdapterRegistry,
		NewCheckoutClient,
		service.NewService,
		webhook.NewService,
	),
)
