package adapters

import (
	"strings"

	"github.com/meddor/scribe/internal/payment/domain"
)

type Registry struct {
	adapters map[string]domain.PaymentAdapter
}

func NewRegistry(adapters ...domain.PaymentAdapter) *Registry {
	registry := &Registry{adapters: map[string]domain.PaymentAdapter{}}
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		provider := strings.ToLower(strings.TrimSpace(adapter.Provider()))
		if provider == "" {
			continue
		}
		registry.adapters[provider] = adapter
	}
	return registry
}

func (r *Registry) ProviderExists(provider string) bool {
	if r == nil {
		return false
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	_, ok := r.adapters[provider]
	return ok
}

func (r *Registry) Adapter(provider string) (domain.PaymentAdapter, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return adapter, nil
}
