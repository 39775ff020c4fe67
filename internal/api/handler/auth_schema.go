package handler

import (
	"time"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

type registerRequest struct {
	Identifier string `json:"identifier" validate:"required,email"`
	Password   string `json:"password"   validate:"required,min=8"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Provider   string    `json:"provider"`
	CreatedAt  time.Time `json:"created_at"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Identifier: u.Identifier,
		Provider:   u.Provider,
		CreatedAt:  u.CreatedAt,
	}
}
