package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// SessionCookieName carries the __Host- prefix, which pins the cookie to
// this host, Path=/ and Secure.
const SessionCookieName = "__Host-session"

const (
	ctxUserRef   = "user_ref"
	ctxSessionID = "session_id"
)

// SetSessionCookie issues the session cookie to the client.
func SetSessionCookie(c echo.Context, sessionID string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserFromContext returns the identity injected by the auth middleware.
func UserFromContext(c echo.Context) (domain.UserRef, bool) {
	ref, ok := c.Get(ctxUserRef).(domain.UserRef)
	return ref, ok
}

// SessionIDFromContext returns the session ID for the current request, or
// empty when the request authenticated with a bearer token.
func SessionIDFromContext(c echo.Context) string {
	id, _ := c.Get(ctxSessionID).(string)
	return id
}

// RequireSession gates a route on a valid server-side session. It loads
// the session referenced by the cookie, enforces expiry (deleting stale
// records), and injects the UserRef into the request context. A request
// can only pass if the session was created from a successful login;
// nothing client-supplied is trusted beyond the opaque ID.
func RequireSession(store ports.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := loadSession(c, store); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func loadSession(c echo.Context, store ports.SessionStore) error {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	session, err := store.Get(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			ClearSessionCookie(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}
		return err
	}

	if session.Expired(time.Now().UTC()) {
		_ = store.Delete(c.Request().Context(), session.ID)
		ClearSessionCookie(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
	}

	if !session.Payload.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	c.Set(ctxUserRef, domain.UserRef{
		UserID:     session.Payload.UserID,
		Identifier: session.Payload.Identifier,
	})
	c.Set(ctxSessionID, session.ID)
	return nil
}
