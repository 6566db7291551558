package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meddor/scribe/internal/clock"
	"github.com/meddor/scribe/internal/config"
	creditdomain "github.com/meddor/scribe/internal/credit/domain"
	generationdomain "github.com/meddor/scribe/internal/generation/domain"
	obsmetrics "github.com/meddor/scribe/internal/observability/metrics"
	promptdomain "github.com/meddor/scribe/internal/prompt/domain"
	llmadapters "github.com/meddor/scribe/internal/providers/llm/adapters"
	llmdomain "github.com/meddor/scribe/internal/providers/llm/domain"
	"github.com/meddor/scribe/internal/ratelimit"
	usagedomain "github.com/meddor/scribe/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// creditCost is the flat price of one generation call.
	creditCost = 1

	// maxAttempts bounds the retry loop for overloaded providers. Delays
	// between attempts double starting at one second.
	maxAttempts = 5

	systemPrompt = "You are a helpful assistant trained to summarize medical notes in French and English. " +
		"You will be given a raw medical note or conversation transcript. " +
		"Use clear point form, no full sentences, and standard medical abbreviations."
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	CreditSvc  creditdomain.Service
	PromptSvc  promptdomain.Service
	UsageSvc   usagedomain.Service
	Providers  *llmadapters.Registry
	Clock      clock.Clock
	Limiter    *ratelimit.GenerateLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	cfg        config.Config
	creditSvc  creditdomain.Service
	promptSvc  promptdomain.Service
	usageSvc   usagedomain.Service
	providers  *llmadapters.Registry
	clock      clock.Clock
	limiter    *ratelimit.GenerateLimiter
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) generationdomain.Service {
	return &Service{
		log:        p.Log.Named("generation.service"),
		cfg:        p.Cfg,
		creditSvc:  p.CreditSvc,
		promptSvc:  p.PromptSvc,
		usageSvc:   p.UsageSvc,
		providers:  p.Providers,
		clock:      p.Clock,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}
}

// Generate charges one credit, then calls the provider with bounded retry on
// overload. The charge happens before the provider call so a failed race on
// the balance can never pay for a completion; the flip side is that a credit
// spent on a provider call that ultimately fails is not refunded. That is the
// product's billing policy, not an oversight.
func (s *Service) Generate(ctx context.Context, req generationdomain.GenerateRequest) (*generationdomain.GenerateResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.AccountEmail))
	input := strings.TrimSpace(req.InputText)
	model := strings.TrimSpace(req.Model)
	if email == "" || input == "" || model == "" {
		return nil, generationdomain.ErrInvalidInput
	}

	provider, err := s.providerFor(model)
	if err != nil {
		return nil, err
	}

	if allowed, err := s.limiter.Allow(ctx, email); err != nil {
		s.log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
	} else if !allowed {
		s.obsMetrics.RecordGeneration(model, "rate_limited")
		return nil, generationdomain.ErrRateLimited
	}

	remaining, err := s.creditSvc.Deduct(ctx, email, creditCost)
	if err != nil {
		if errors.Is(err, creditdomain.ErrInsufficientCredit) || errors.Is(err, creditdomain.ErrAccountNotFound) {
			s.obsMetrics.RecordGeneration(model, "credit_exhausted")
			return nil, fmt.Errorf("%w: %v", generationdomain.ErrCreditExhausted, err)
		}
		return nil, err
	}

	template, err := s.promptSvc.Resolve(ctx, email)
	if err != nil {
		s.log.Warn("prompt lookup failed, using default template", zap.Error(err))
		template = promptdomain.DefaultTemplate
	}

	completion, err := s.completeWithRetry(ctx, provider, llmdomain.CompletionRequest{
		System:     systemPrompt,
		UserPrompt: buildUserPrompt(template, input),
		Model:      model,
		MaxTokens:  s.cfg.MaxOutputTokens,
	})
	if err != nil {
		s.obsMetrics.RecordGeneration(model, "failed")
		s.log.Warn("generation failed after deduction",
			zap.String("email", email),
			zap.String("model", model),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", generationdomain.ErrGenerationFailed, err)
	}

	record, err := s.usageSvc.Append(ctx, usagedomain.AppendRequest{
		AccountEmail: email,
		InputText:    input,
		OutputText:   completion.Text,
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
		Model:        model,
		Tag:          req.Tag,
	})
	if err != nil {
		// The summary was produced and paid for; a usage-log failure must
		// not withhold it from the caller.
		s.log.Error("failed to append usage record", zap.Error(err))
	} else {
		s.log.Info("generation completed",
			zap.String("email", email),
			zap.String("model", model),
			zap.String("usage_record_id", record.ID.String()),
			zap.Int("input_tokens", completion.InputTokens),
			zap.Int("output_tokens", completion.OutputTokens),
		)
	}

	s.obsMetrics.RecordGeneration(model, "ok")
	return &generationdomain.GenerateResult{
		OutputText:       completion.Text,
		InputTokens:      completion.InputTokens,
		OutputTokens:     completion.OutputTokens,
		CreditsSpent:     creditCost,
		RemainingCredits: remaining,
	}, nil
}

func (s *Service) completeWithRetry(ctx context.Context, provider llmdomain.Provider, req llmdomain.CompletionRequest) (*llmdomain.Completion, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		completion, err := provider.Complete(ctx, req)
		if err == nil {
			return completion, nil
		}
		lastErr = err
		if !errors.Is(err, llmdomain.ErrOverloaded) || attempt == maxAttempts-1 {
			return nil, lastErr
		}

		s.obsMetrics.RecordGenerationRetry()
		delay := time.Duration(1<<attempt) * time.Second
		s.log.Info("provider overloaded, backing off",
			zap.String("provider", provider.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		if err := s.clock.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *Service) providerFor(model string) (llmdomain.Provider, error) {
	name := "openai"
	if strings.HasPrefix(strings.ToLower(model), "claude") {
		name = "anthropic"
	}
	provider, err := s.providers.Provider(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", generationdomain.ErrModelNotSupported, model)
	}
	return provider, nil
}

func buildUserPrompt(template, input string) string {
	return template + "\n\nRésumez le texte suivant :\n\n" + input
}
