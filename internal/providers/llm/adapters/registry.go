package adapters

import (
	"strings"

	"github.com/meddor/scribe/internal/providers/llm/domain"
)

type Registry struct {
	providers map[string]domain.Provider
}

func NewRegistry(providers ...domain.Provider) *Registry {
	registry := &Registry{providers: map[string]domain.Provider{}}
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(provider.Name()))
		if name == "" {
			continue
		}
		registry.providers[name] = provider
	}
	return registry
}

func (r *Registry) ProviderExists(name string) bool {
	if r == nil {
		return false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	_, ok := r.providers[name]
	return ok
}

func (r *Registry) Provider(name string) (domain.Provider, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	name = strings.ToLower(strings.TrimSpace(name))
	provider, ok := r.providers[name]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return provider, nil
}
