package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meddor/scribe/internal/config"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
	"go.uber.org/zap"
)

const checkoutEndpoint = "https://api.stripe.com/v1/checkout/sessions"

// CheckoutClient creates hosted Stripe Checkout sessions for the single
// credit package the product sells.
type CheckoutClient struct {
	apiKey string
	cfg    config.Config
	http   *http.Client
	log    *zap.Logger
}

func NewCheckoutClient(cfg config.Config, log *zap.Logger) (*CheckoutClient, error) {
	apiKey := strings.TrimSpace(cfg.StripeSecretKey)
	if apiKey == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return &CheckoutClient{
		apiKey: apiKey,
		cfg:    cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log.Named("payment.checkout"),
	}, nil
}

func (c *CheckoutClient) CreateSession(ctx context.Context, accountEmail string) (*paymentdomain.CheckoutSession, error) {
	accountEmail = strings.ToLower(strings.TrimSpace(accountEmail))
	if accountEmail == "" {
		return nil, paymentdomain.ErrMissingAccountEmail
	}

	packageName := fmt.Sprintf("%d AI Credits", c.cfg.CreditPackageSize)
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", c.cfg.Currency)
	form.Set("line_items[0][price_data][product_data][name]", packageName)
	form.Set("line_items[0][price_data][product_data][description]", "Credits for AI analysis and responses")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(c.cfg.CreditPackagePrice, 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.cfg.BaseURL+"/payments?success=true")
	form.Set("cancel_url", c.cfg.BaseURL+"/payments?canceled=true")
	form.Set("customer_email", accountEmail)
	form.Set("metadata[user_email]", accountEmail)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, checkoutEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("checkout session creation failed",
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("stripe: checkout session status %d", resp.StatusCode)
	}

	var session paymentdomain.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if session.ID == "" || session.URL == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}
	return &session, nil
}
