package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meddor/scribe/internal/config"
	creditdomain "github.com/meddor/scribe/internal/credit/domain"
	generationdomain "github.com/meddor/scribe/internal/generation/domain"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
	usagedomain "github.com/meddor/scribe/internal/usage/domain"
	"go.uber.org/zap"
)

type fakeCreditService struct {
	balances map[string]int64
}

func (f *fakeCreditService) GetBalance(ctx context.Context, email string) (int64, error) {
	balance, ok := f.balances[email]
	if !ok {
		return 0, creditdomain.ErrAccountNotFound
	}
	return balance, nil
}

func (f *fakeCreditService) Deduct(ctx context.Context, email string, amount int64) (int64, error) {
	return 0, nil
}

func (f *fakeCreditService) Grant(ctx context.Context, email string, amount int64) (int64, error) {
	return 0, nil
}

func (f *fakeCreditService) EnsureAccount(ctx context.Context, email string) error {
	return nil
}

type fakeGenerationService struct {
	result *generationdomain.GenerateResult
	err    error
	calls  int
}

func (f *fakeGenerationService) Generate(ctx context.Context, req generationdomain.GenerateRequest) (*generationdomain.GenerateResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakePromptService struct{}

func (fakePromptService) EnsureDefault(ctx context.Context, email string) error { return nil }
func (fakePromptService) Resolve(ctx context.Context, email string) (string, error) {
	return "template", nil
}
func (fakePromptService) Update(ctx context.Context, email, body string) error { return nil }

type fakeUsageService struct{}

func (fakeUsageService) Append(ctx context.Context, req usagedomain.AppendRequest) (*usagedomain.UsageRecord, error) {
	return &usagedomain.UsageRecord{}, nil
}

func (fakeUsageService) List(ctx context.Context, req usagedomain.ListRequest) (usagedomain.ListResponse, error) {
	return usagedomain.ListResponse{}, nil
}

type fakeWebhookService struct {
	err   error
	calls int
}

func (f *fakeWebhookService) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	f.calls++
	return f.err
}

func newTestServer(credit *fakeCreditService, gen *fakeGenerationService, webhook *fakeWebhookService) *Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	svc := &Server{
		engine:        engine,
		cfg:           config.Config{},
		log:           zap.NewNop(),
		creditSvc:     credit,
		generationSvc: gen,
		promptSvc:     fakePromptService{},
		usageSvc:      fakeUsageService{},
		webhookSvc:    webhook,
	}
	svc.registerAPIRoutes()
	return svc
}

func TestGetCreditBalance(t *testing.T) {
	svc := newTestServer(
		&fakeCreditService{balances: map[string]int64{"doc@example.com": 42}},
		&fakeGenerationService{},
		&fakeWebhookService{},
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/doc@example.com/credits", nil)
	svc.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["credit_balance"].(float64) != 42 {
		t.Fatalf("expected balance 42, got %v", body["credit_balance"])
	}
}

func TestGetCreditBalanceUnknownAccount(t *testing.T) {
	svc := newTestServer(&fakeCreditService{}, &fakeGenerationService{}, &fakeWebhookService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/nobody@example.com/credits", nil)
	svc.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateSummaryExhaustedCreditsMapsToPaymentRequired(t *testing.T) {
	svc := newTestServer(
		&fakeCreditService{},
		&fakeGenerationService{err: generationdomain.ErrCreditExhausted},
		&fakeWebhookService{},
	)

	payload := []byte(`{"account_email":"doc@example.com","input_text":"note","model":"gpt-4o"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/summaries", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	svc.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateSummaryRateLimitedMapsToTooManyRequests(t *testing.T) {
	svc := newTestServer(
		&fakeCreditService{},
		&fakeGenerationService{err: generationdomain.ErrRateLimited},
		&fakeWebhookService{},
	)

	payload := []byte(`{"account_email":"doc@example.com","input_text":"note","model":"gpt-4o"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/summaries", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	svc.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestCreateSummaryReturnsResult(t *testing.T) {
	gen := &fakeGenerationService{result: &generationdomain.GenerateResult{
		OutputText:       "summary",
		CreditsSpent:     1,
		RemainingCredits: 9,
	}}
	svc := newTestServer(&fakeCreditService{}, gen, &fakeWebhookService{})

	payload := []byte(`{"account_email":"doc@example.com","input_text":"note","model":"gpt-4o"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/summaries", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	svc.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result generationdomain.GenerateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.OutputText != "summary" || result.RemainingCredits != 9 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 generate call, got %d", gen.calls)
	}
}

func TestHandlePaymentWebhookDuplicateAcknowledged(t *testing.T) {
	svc := newTestServer(
		&fakeCreditService{},
		&fakeGenerationService{},
		&fakeWebhookService{err: paymentdomain.ErrEventAlreadyProcessed},
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook/stripe", bytes.NewReader([]byte(`{}`)))
	svc.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate delivery must be acknowledged with 200, got %d", rec.Code)
	}
}

func TestHandlePaymentWebhookBadSignatureRejected(t *testing.T) {
	svc := newTestServer(
		&fakeCreditService{},
		&fakeGenerationService{},
		&fakeWebhookService{err: paymentdomain.ErrInvalidSignature},
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook/stripe", bytes.NewReader([]byte(`{}`)))
	svc.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", rec.Code)
	}
}

func TestCreateCheckoutSessionUnconfigured(t *testing.T) {
	svc := newTestServer(&fakeCreditService{}, &fakeGenerationService{}, &fakeWebhookService{})

	payload := []byte(`{"account_email":"doc@example.com"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout-sessions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	svc.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when checkout is not configured, got %d", rec.Code)
	}
}
