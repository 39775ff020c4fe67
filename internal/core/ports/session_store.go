package ports

import (
	"context"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

// SessionStore persists server-side sessions keyed by opaque IDs.
type SessionStore interface {
	// Create stores the session until its expiry.
	Create(ctx context.Context, session *domain.Session) error

	// Get returns domain.ErrSessionNotFound when the ID is unknown or the
	// record has already been evicted.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes the session. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}
