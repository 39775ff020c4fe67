package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// SessionCodec translates between full user records and the minimal
// payload persisted in the session store. Both directions are pure.
type SessionCodec struct{}

// Serialize projects a user down to the payload. Nothing beyond the ID
// and identifier crosses this boundary, so credential material can never
// leak into the store.
func (SessionCodec) Serialize(user *domain.User) domain.SessionPayload {
	return domain.SessionPayload{
		UserID:     user.ID,
		Identifier: user.Identifier,
	}
}

// Deserialize reconstructs the request identity. It does not re-fetch the
// user; handlers that need fresh attributes go back to the store.
func (SessionCodec) Deserialize(payload domain.SessionPayload) domain.UserRef {
	return domain.UserRef{
		UserID:     payload.UserID,
		Identifier: payload.Identifier,
	}
}

// NewSessionID returns a 256-bit random ID, base64url without padding.
func NewSessionID() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// SessionManager issues and revokes server-side sessions.
type SessionManager struct {
	store ports.SessionStore
	codec SessionCodec
	ttl   time.Duration
}

func NewSessionManager(store ports.SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{store: store, ttl: ttl}
}

// Issue creates a session for a user that has already passed
// authentication. Nothing else in the system writes to the session store.
func (m *SessionManager) Issue(ctx context.Context, user *domain.User) (*domain.Session, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        id,
		Payload:   m.codec.Serialize(user),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return session, nil
}

// Payload returns the payload of a live session so callers can attribute
// an action to its owner. Unknown IDs surface ErrSessionNotFound.
func (m *SessionManager) Payload(ctx context.Context, id string) (domain.SessionPayload, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return domain.SessionPayload{}, err
	}
	return session.Payload, nil
}

// Revoke deletes the session; unknown IDs are a no-op.
func (m *SessionManager) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
