package ports

import (
	"context"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

// LocalCredentials is the identifier/secret pair submitted on a local login.
type LocalCredentials struct {
	Identifier string
	Secret     string
}

// AuthInput is a closed two-variant input to a strategy: exactly one of
// Credentials or Identity is set, matching the strategy it is handed to.
type AuthInput struct {
	Credentials *LocalCredentials
	Identity    *domain.FederatedIdentity
}

// AuthStrategy authenticates one kind of input. The AuthResult separates
// rejection (wrong credentials, unknown account) from the error return,
// which reports infrastructure failure only.
type AuthStrategy interface {
	Name() string
	Authenticate(ctx context.Context, input AuthInput) (domain.AuthResult, error)
}
