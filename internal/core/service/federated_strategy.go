package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// FederatedStrategy authenticates identities already asserted by an
// external provider. It is the only path that creates accounts without a
// password hash.
type FederatedStrategy struct {
	store ports.UserStore
	log   zerolog.Logger
}

func NewFederatedStrategy(store ports.UserStore, log zerolog.Logger) *FederatedStrategy {
	return &FederatedStrategy{store: store, log: log}
}

func (s *FederatedStrategy) Name() string { return "federated" }

// Authenticate trusts the provider's assertion: there is nothing left to
// reject, so the outcome is either Authenticated or a store error.
func (s *FederatedStrategy) Authenticate(ctx context.Context, input ports.AuthInput) (domain.AuthResult, error) {
	if input.Identity == nil {
		return domain.AuthResult{}, fmt.Errorf("federated authenticate: %w: missing identity", domain.ErrInvalidInput)
	}
	identity := *input.Identity
	if identity.Provider == "" || identity.SubjectID == "" {
		return domain.AuthResult{}, fmt.Errorf("federated authenticate: %w: incomplete identity", domain.ErrInvalidInput)
	}

	user, err := s.store.FindOrCreateFederated(ctx, identity)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("federated authenticate: %w", err)
	}

	s.log.Info().
		Str("strategy", s.Name()).
		Str("provider", identity.Provider).
		Str("user_id", user.ID).
		Msg("federated login")

	return domain.Authenticated(user), nil
}
