package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

// BcryptHasher implements ports.PasswordHasher on top of bcrypt. The cost
// comes from configuration so deployments can tune work factor without a
// code change.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher validates the cost up front; an out-of-range cost is a
// configuration mistake and should stop startup, not surface per request.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("hash: %w: empty secret", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return string(hash), nil
}

// Verify returns (false, nil) on mismatch. The error return fires only
// when the stored value is not bcrypt output at all, which points at data
// corruption rather than a wrong password.
func (h *BcryptHasher) Verify(secret, hashed string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify: %w: %v", domain.ErrMalformedHash, err)
}
