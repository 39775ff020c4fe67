package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretsapp/secrets-api/internal/api/metrics"
	"github.com/secretsapp/secrets-api/internal/api/middleware"
	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// LocalAuth is the slice of the local strategy the handler needs.
type LocalAuth interface {
	Authenticate(ctx context.Context, input ports.AuthInput) (domain.AuthResult, error)
	Register(ctx context.Context, identifier, secret string) (*domain.User, error)
}

// SessionIssuer issues, inspects and revokes server-side sessions.
type SessionIssuer interface {
	Issue(ctx context.Context, user *domain.User) (*domain.Session, error)
	Payload(ctx context.Context, id string) (domain.SessionPayload, error)
	Revoke(ctx context.Context, id string) error
}

// AuditRecorder is the interface the handlers use to enqueue auth events.
type AuditRecorder interface {
	Enqueue(event domain.AuthEvent)
}

type AuthHandler struct {
	local    LocalAuth
	sessions SessionIssuer
	tokens   ports.TokenIssuer
	audit    AuditRecorder
	log      zerolog.Logger
}

func NewAuthHandler(local LocalAuth, sessions SessionIssuer, tokens ports.TokenIssuer, audit AuditRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{local: local, sessions: sessions, tokens: tokens, audit: audit, log: log}
}

// Register creates a new local account and logs it in immediately.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.local.Register(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		case errors.Is(err, domain.ErrInvalidInput):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	h.audit.Enqueue(domain.AuthEvent{
		Type:       domain.EventRegistered,
		Identifier: user.Identifier,
		Strategy:   domain.ProviderLocal,
	})

	// Auto-login: a fresh registration should not force a second step.
	return h.openSession(c, user, http.StatusCreated)
}

// Login authenticates local credentials and opens a session.
//
// @Summary      Login with identifier and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.local.Authenticate(c.Request().Context(), ports.AuthInput{
		Credentials: &ports.LocalCredentials{Identifier: req.Identifier, Secret: req.Password},
	})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(domain.ProviderLocal, "error").Inc()
		return err
	}
	if !result.OK() {
		metrics.LoginAttemptsTotal.WithLabelValues(domain.ProviderLocal, "rejected").Inc()
		h.audit.Enqueue(domain.AuthEvent{
			Type:       domain.EventLoginRejected,
			Identifier: req.Identifier,
			Strategy:   domain.ProviderLocal,
			Reason:     result.Reason,
		})
		// The reason stays internal; the client sees one generic 401.
		return domain.ErrInvalidCredentials
	}

	metrics.LoginAttemptsTotal.WithLabelValues(domain.ProviderLocal, "success").Inc()
	h.audit.Enqueue(domain.AuthEvent{
		Type:       domain.EventLoginSucceeded,
		Identifier: result.User.Identifier,
		Strategy:   domain.ProviderLocal,
	})

	return h.openSession(c, result.User, http.StatusOK)
}

// Logout destroys the server-side session and clears the cookie. It is
// idempotent: logging out without a session is still a 204.
//
// @Summary      Logout
// @Tags         auth
// @Success      204  "No Content"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		ctx := c.Request().Context()

		// Resolve the owner before the session disappears so the audit
		// record carries an identity.
		var identifier string
		if payload, err := h.sessions.Payload(ctx, cookie.Value); err == nil {
			identifier = payload.Identifier
		}

		if err := h.sessions.Revoke(ctx, cookie.Value); err != nil {
			h.log.Warn().Err(err).Msg("session revoke failed")
		} else {
			metrics.SessionsRevokedTotal.Inc()
			h.audit.Enqueue(domain.AuthEvent{
				Type:       domain.EventLoggedOut,
				Identifier: identifier,
			})
		}
	}

	middleware.ClearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// openSession issues the session cookie and the API token for a user that
// has just passed authentication.
func (h *AuthHandler) openSession(c echo.Context, user *domain.User, status int) error {
	session, err := h.sessions.Issue(c.Request().Context(), user)
	if err != nil {
		return err
	}
	metrics.SessionsIssuedTotal.Inc()

	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, session.ID, session.ExpiresAt)
	return c.JSON(status, authResponse{User: toUserResponse(user), Token: token})
}
