package llm

import (
	"github.com/meddor/scribe/internal/config"
	"github.com/meddor/scribe/internal/providers/llm/adapters"
	"github.com/meddor/scribe/internal/providers/llm/adapters/anthropic"
	"github.com/meddor/scribe/internal/providers/llm/adapters/openai"
	"github.com/meddor/scribe/internal/providers/llm/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRegistry registers a client for every provider with a configured key.
func NewRegistry(cfg config.Config, log *zap.Logger) (*adapters.Registry, error) {
	var providers []domain.Provider

	if cfg.OpenAIAPIKey != "" {
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.GenerationTimeout, log)
		if err != nil {
			return nil, err
		}
		providers = append(providers, client)
	}
	if cfg.AnthropicAPIKey != "" {
		client, err := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.GenerationTimeout, log)
		if err != nil {
			return nil, err
		}
		providers = append(providers, client)
	}

	if len(providers) == 0 {
		log.Warn("no generation providers configured")
	}
	return adapters.NewRegistry(providers...), nil
}

var Module = fx.Module("llm.providers",
	fx.Provide(NewRegistry),
)
