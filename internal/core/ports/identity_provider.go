package ports

import (
	"context"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

// IdentityProvider wraps an external OAuth/OIDC provider. Strategies never
// see provider wire formats; Exchange returns the normalized identity.
type IdentityProvider interface {
	Name() string

	// AuthCodeURL builds the redirect URL for the authorization request.
	// The state and PKCE verifier are caller-supplied so the handler can
	// bind them to the browser via cookies.
	AuthCodeURL(state, pkceVerifier string) string

	// Exchange redeems the authorization code, verifies the resulting
	// identity assertion, and normalizes it.
	Exchange(ctx context.Context, code, pkceVerifier string) (*domain.FederatedIdentity, error)
}
