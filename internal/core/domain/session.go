package domain

import "time"

// SessionPayload is the minimal identity projection persisted in the
// session store. It intentionally contains nothing beyond the user id and
// the display identifier; in particular it never carries a password hash
// or any other credential material.
type SessionPayload struct {
	UserID     string `json:"user_id"`
	Identifier string `json:"identifier"`
}

// Authenticated reports whether the payload represents a logged-in user.
func (p SessionPayload) Authenticated() bool {
	return p.UserID != ""
}

// Session is a server-side session record keyed by an opaque random ID.
type Session struct {
	ID        string         `json:"id"`
	Payload   SessionPayload `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
