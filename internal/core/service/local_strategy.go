package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// dummyHash is a bcrypt hash of a throwaway value. It is verified on
// lookup misses so a login against an unknown identifier costs the same
// as one against a real account. The result is always discarded.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

const minSecretLength = 8

// LocalStrategy authenticates identifier/password credentials against the
// user store and also handles registration of local accounts.
type LocalStrategy struct {
	store  ports.UserStore
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewLocalStrategy(store ports.UserStore, hasher ports.PasswordHasher, log zerolog.Logger) *LocalStrategy {
	return &LocalStrategy{store: store, hasher: hasher, log: log}
}

func (s *LocalStrategy) Name() string { return domain.ProviderLocal }

// Authenticate resolves the credentials to an AuthResult. All refusal
// paths (unknown identifier, federated-only account, wrong password) are
// rejections with distinct internal reasons; only store and hash parsing
// failures use the error return.
func (s *LocalStrategy) Authenticate(ctx context.Context, input ports.AuthInput) (domain.AuthResult, error) {
	if input.Credentials == nil {
		return domain.AuthResult{}, fmt.Errorf("local authenticate: %w: missing credentials", domain.ErrInvalidInput)
	}
	creds := input.Credentials

	user, err := s.store.FindByIdentifier(ctx, strings.ToLower(creds.Identifier))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Burn the same hashing work as the found path.
			_, _ = s.hasher.Verify(creds.Secret, dummyHash)
			s.log.Debug().Str("strategy", s.Name()).Msg("login rejected: unknown identifier")
			return domain.Rejected(domain.ReasonUnknownIdentifier), nil
		}
		return domain.AuthResult{}, fmt.Errorf("local authenticate: %w", err)
	}

	if !user.HasPassword() {
		_, _ = s.hasher.Verify(creds.Secret, dummyHash)
		s.log.Debug().Str("strategy", s.Name()).Str("user_id", user.ID).Msg("login rejected: no password set")
		return domain.Rejected(domain.ReasonNoPasswordSet), nil
	}

	ok, err := s.hasher.Verify(creds.Secret, user.PasswordHash)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("local authenticate: %w", err)
	}
	if !ok {
		s.log.Debug().Str("strategy", s.Name()).Str("user_id", user.ID).Msg("login rejected: bad credentials")
		return domain.Rejected(domain.ReasonBadCredentials), nil
	}

	return domain.Authenticated(user), nil
}

// Register creates a password-backed account. The identifier is stored
// lower-cased so lookups are case-insensitive.
func (s *LocalStrategy) Register(ctx context.Context, identifier, secret string) (*domain.User, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" {
		return nil, fmt.Errorf("register: %w: empty identifier", domain.ErrInvalidInput)
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("register: %w: secret shorter than %d characters", domain.ErrInvalidInput, minSecretLength)
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.store.InsertLocal(ctx, identifier, hash)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("local account registered")
	return user, nil
}
