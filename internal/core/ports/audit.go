package ports

import (
	"context"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

// AuditRepository persists authentication audit records.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService processes authentication events off the request path.
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}
