package domain

import "time"

// Federated identity providers known to the system.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User models an account in the system. Local accounts carry a password
// hash; federated accounts carry a provider key instead and may have an
// empty PasswordHash.
type User struct {
	ID             string    `json:"id"`
	Identifier     string    `json:"identifier"`
	PasswordHash   string    `json:"-"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can authenticate locally.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// UserRef is the identity reconstructed from a session payload. It carries
// no credential material and is what protected handlers receive.
type UserRef struct {
	UserID     string `json:"user_id"`
	Identifier string `json:"identifier"`
}

// FederatedIdentity is the normalized assertion returned by an identity
// provider after a successful code exchange.
type FederatedIdentity struct {
	Provider   string
	SubjectID  string
	Email      string
	Identifier string
}
