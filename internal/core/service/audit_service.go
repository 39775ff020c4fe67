package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that writes the audit trail to
// the repository.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Process persists a single auth event. Runs on dispatcher workers, off
// the request path.
func (s *auditService) Process(ctx context.Context, event domain.AuthEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("process auth event: %w", err)
	}

	s.log.Debug().
		Str("type", string(event.Type)).
		Str("strategy", event.Strategy).
		Msg("auth event recorded")

	return nil
}
