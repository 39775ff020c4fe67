package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/secretsapp/secrets-api/internal/api/middleware"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// MeHandler serves the protected API surface.
type MeHandler struct {
	users ports.UserStore
}

func NewMeHandler(users ports.UserStore) *MeHandler {
	return &MeHandler{users: users}
}

type meResponse struct {
	UserID     string `json:"user_id"`
	Identifier string `json:"identifier"`
}

// Me returns the identity of the current request. By default it answers
// from the session payload without touching the store; ?fresh=true
// re-fetches the account so callers can see up-to-date attributes.
//
// @Summary      Current identity
// @Tags         api
// @Produce      json
// @Param        fresh  query  bool  false  "Re-fetch the account from the store"
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/me [get]
func (h *MeHandler) Me(c echo.Context) error {
	ref, ok := middleware.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	if c.QueryParam("fresh") == "true" {
		user, err := h.users.FindByIdentifier(c.Request().Context(), ref.Identifier)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toUserResponse(user))
	}

	return c.JSON(http.StatusOK, meResponse{UserID: ref.UserID, Identifier: ref.Identifier})
}

type secretsResponse struct {
	Secret string `json:"secret"`
}

// Secrets is the sample protected resource: reachable only through the
// authentication gate.
//
// @Summary      Protected resource
// @Tags         api
// @Produce      json
// @Success      200  {object}  secretsResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/secrets [get]
func (h *MeHandler) Secrets(c echo.Context) error {
	ref, ok := middleware.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	return c.JSON(http.StatusOK, secretsResponse{
		Secret: "the secret belongs to " + ref.Identifier,
	})
}
