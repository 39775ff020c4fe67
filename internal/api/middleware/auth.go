package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// BearerAuth validates an HS256 bearer token and injects the identity
// into context. Used by API clients that cannot hold a session cookie.
func BearerAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ref, err := bearerIdentity(c, jwtSecret)
			if err != nil {
				return err
			}
			c.Set(ctxUserRef, ref)
			return next(c)
		}
	}
}

// Authenticated accepts either a session cookie or a bearer token, in
// that order. Browser traffic carries the cookie; API clients send the
// Authorization header.
func Authenticated(store ports.SessionStore, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := c.Cookie(SessionCookieName); err == nil {
				if err := loadSession(c, store); err != nil {
					return err
				}
				return next(c)
			}

			ref, err := bearerIdentity(c, jwtSecret)
			if err != nil {
				return err
			}
			c.Set(ctxUserRef, ref)
			return next(c)
		}
	}
}

func bearerIdentity(c echo.Context, jwtSecret string) (domain.UserRef, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return domain.UserRef{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return domain.UserRef{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return domain.UserRef{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sub, _ := claims["sub"].(string)
	identifier, _ := claims["identifier"].(string)
	if sub == "" {
		return domain.UserRef{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	return domain.UserRef{UserID: sub, Identifier: identifier}, nil
}
