package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
)

type Adapter struct {
	webhookSecret string
}

func NewAdapter(webhookSecret string) (*Adapter, error) {
	webhookSecret = strings.TrimSpace(webhookSecret)
	if webhookSecret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return &Adapter{webhookSecret: webhookSecret}, nil
}

func (a *Adapter) Provider() string {
	return "stripe"
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseStripeSignature(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return paymentdomain.ErrInvalidSignature
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.CheckoutEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return a.parseCheckoutSession(event, payload)
	default:
		return nil, paymentdomain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeCheckoutSession struct {
	ID            string         `json:"id"`
	AmountTotal   int64          `json:"amount_total"`
	Currency      string         `json:"currency"`
	Created       int64          `json:"created"`
	CustomerEmail string         `json:"customer_email"`
	Metadata      map[string]any `json:"metadata"`
}

func (a *Adapter) parseCheckoutSession(event stripeEvent, payload []byte) (*paymentdomain.CheckoutEvent, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	email := readMetadataValue(session.Metadata, "user_email")
	if email == "" {
		email = strings.TrimSpace(session.CustomerEmail)
	}
	if email == "" {
		return nil, paymentdomain.ErrMissingAccountEmail
	}

	return &paymentdomain.CheckoutEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		SessionID:       session.ID,
		AccountEmail:    strings.ToLower(email),
		Amount:          session.AmountTotal,
		Currency:        strings.ToUpper(strings.TrimSpace(session.Currency)),
		OccurredAt:      timestamp(session.Created, event.Created),
		RawPayload:      payload,
	}, nil
}

func parseStripeSignature(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func timestamp(primary int64, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}

func readMetadataValue(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, ok := metadata[key]
	if !ok {
		return ""
	}
	switch cast := value.(type) {
	case string:
		return strings.TrimSpace(cast)
	case float64:
		if cast == 0 {
			return ""
		}
		return strconv.FormatInt(int64(cast), 10)
	case json.Number:
		return cast.String()
	}
	return ""
}
