package identity

import (
	"fmt"

	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// Registry holds the configured identity providers keyed by name. It
// performs no auth logic itself.
type Registry struct {
	providers map[string]ports.IdentityProvider
}

// NewRegistry registers the given providers by name.
func NewRegistry(list ...ports.IdentityProvider) *Registry {
	m := make(map[string]ports.IdentityProvider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider by name or domain.ErrUnknownProvider.
func (r *Registry) Get(name string) (ports.IdentityProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, name)
	}
	return p, nil
}
