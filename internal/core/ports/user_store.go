package ports

import (
	"context"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

// UserStore defines the interface for user account persistence.
type UserStore interface {
	// FindByIdentifier returns domain.ErrUserNotFound when no account
	// matches the identifier.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// FindByProviderKey looks up a federated account by its provider key.
	// Returns domain.ErrUserNotFound on miss.
	FindByProviderKey(ctx context.Context, provider, subjectID string) (*domain.User, error)

	// InsertLocal creates a password-backed account. Returns
	// domain.ErrUserExists when the identifier is already taken; the
	// check and insert are a single atomic operation.
	InsertLocal(ctx context.Context, identifier, passwordHash string) (*domain.User, error)

	// FindOrCreateFederated resolves a provider-asserted identity to an
	// account, creating one on first login. Concurrent calls for the same
	// identity converge on a single account.
	FindOrCreateFederated(ctx context.Context, identity domain.FederatedIdentity) (*domain.User, error)
}
