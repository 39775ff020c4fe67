package ports

import "github.com/secretsapp/secrets-api/internal/core/domain"

// TokenIssuer mints bearer tokens for non-browser API clients.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}
