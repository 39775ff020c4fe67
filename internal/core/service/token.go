package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

// JWTIssuer mints HS256 bearer tokens for API clients that cannot hold a
// session cookie.
type JWTIssuer struct {
	secret   string
	tokenTTL time.Duration
}

func NewJWTIssuer(secret string, tokenTTL time.Duration) *JWTIssuer {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &JWTIssuer{secret: secret, tokenTTL: tokenTTL}
}

func (i *JWTIssuer) Issue(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":        user.ID,
		"identifier": user.Identifier,
		"exp":        time.Now().Add(i.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(i.secret))
}
