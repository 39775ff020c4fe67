package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretsapp/secrets-api/internal/api/metrics"
	"github.com/secretsapp/secrets-api/internal/api/middleware"
	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

const (
	stateCookieName = "__Host-oauth_state"
	pkceCookieName  = "__Host-oauth_pkce"
	oauthCookieTTL  = 5 * time.Minute
)

// ProviderResolver looks up a configured identity provider by name.
type ProviderResolver interface {
	Get(name string) (ports.IdentityProvider, error)
}

// FederatedAuth is the slice of the federated strategy the handler needs.
type FederatedAuth interface {
	Authenticate(ctx context.Context, input ports.AuthInput) (domain.AuthResult, error)
}

type OAuthHandler struct {
	providers ProviderResolver
	federated FederatedAuth
	sessions  SessionIssuer
	audit     AuditRecorder
	log       zerolog.Logger
}

func NewOAuthHandler(providers ProviderResolver, federated FederatedAuth, sessions SessionIssuer, audit AuditRecorder, log zerolog.Logger) *OAuthHandler {
	return &OAuthHandler{providers: providers, federated: federated, sessions: sessions, audit: audit, log: log}
}

// Login starts the authorization code flow: bind a fresh state and PKCE
// verifier to the browser via cookies, then redirect to the provider.
//
// @Summary      Start federated login
// @Tags         oauth
// @Param        provider  path  string  true  "Provider name"
// @Success      302  "Redirect to the identity provider"
// @Failure      404  {object}  errorResponse
// @Router       /oauth/login/{provider} [get]
func (h *OAuthHandler) Login(c echo.Context) error {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		return err
	}

	state, err := randomToken()
	if err != nil {
		return err
	}
	verifier, err := randomToken()
	if err != nil {
		return err
	}

	setOAuthCookie(c, stateCookieName, state)
	setOAuthCookie(c, pkceCookieName, verifier)

	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state, verifier))
}

// Callback finishes the flow: validate state, redeem the code, run the
// federated strategy, and open a session.
//
// @Summary      Federated login callback
// @Tags         oauth
// @Param        provider  path   string  true  "Provider name"
// @Param        code      query  string  true  "Authorization code"
// @Param        state     query  string  true  "State"
// @Success      200  {object}  authResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /oauth/callback/{provider} [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	name := c.Param("provider")
	provider, err := h.providers.Get(name)
	if err != nil {
		return err
	}

	if errParam := c.QueryParam("error"); errParam != "" {
		h.log.Warn().Str("provider", name).Str("error", errParam).Msg("provider returned error")
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
	}

	state := c.QueryParam("state")
	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || stateCookie.Value != state {
		return echo.NewHTTPError(http.StatusUnauthorized, "state mismatch")
	}
	pkceCookie, err := c.Cookie(pkceCookieName)
	if err != nil || pkceCookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing pkce verifier")
	}
	clearOAuthCookie(c, stateCookieName)
	clearOAuthCookie(c, pkceCookieName)

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing code")
	}

	identity, err := provider.Exchange(c.Request().Context(), code, pkceCookie.Value)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(name, "rejected").Inc()
		h.log.Warn().Err(err).Str("provider", name).Msg("code exchange failed")
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
	}

	result, err := h.federated.Authenticate(c.Request().Context(), ports.AuthInput{Identity: identity})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(name, "error").Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues(name, "success").Inc()
	h.audit.Enqueue(domain.AuthEvent{
		Type:       domain.EventLoginSucceeded,
		Identifier: result.User.Identifier,
		Strategy:   name,
	})

	session, err := h.sessions.Issue(c.Request().Context(), result.User)
	if err != nil {
		return err
	}
	metrics.SessionsIssuedTotal.Inc()

	middleware.SetSessionCookie(c, session.ID, session.ExpiresAt)
	return c.JSON(http.StatusOK, authResponse{User: toUserResponse(result.User)})
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setOAuthCookie(c echo.Context, name, value string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(oauthCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearOAuthCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
