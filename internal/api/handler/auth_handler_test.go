package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretsapp/secrets-api/internal/api/middleware"
	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubLocalAuth struct {
	authenticateFn func(ctx context.Context, input ports.AuthInput) (domain.AuthResult, error)
	registerFn     func(ctx context.Context, identifier, secret string) (*domain.User, error)
}

func (s *stubLocalAuth) Authenticate(ctx context.Context, input ports.AuthInput) (domain.AuthResult, error) {
	return s.authenticateFn(ctx, input)
}

func (s *stubLocalAuth) Register(ctx context.Context, identifier, secret string) (*domain.User, error) {
	return s.registerFn(ctx, identifier, secret)
}

type stubSessionIssuer struct {
	issueErr error
	payloads map[string]domain.SessionPayload
	revoked  []string
}

func (s *stubSessionIssuer) Issue(_ context.Context, user *domain.User) (*domain.Session, error) {
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	now := time.Now().UTC()
	return &domain.Session{
		ID:        "sess_test",
		Payload:   domain.SessionPayload{UserID: user.ID, Identifier: user.Identifier},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}, nil
}

func (s *stubSessionIssuer) Payload(_ context.Context, id string) (domain.SessionPayload, error) {
	if p, ok := s.payloads[id]; ok {
		return p, nil
	}
	return domain.SessionPayload{}, domain.ErrSessionNotFound
}

func (s *stubSessionIssuer) Revoke(_ context.Context, id string) error {
	s.revoked = append(s.revoked, id)
	return nil
}

type stubTokenIssuer struct{}

func (stubTokenIssuer) Issue(_ *domain.User) (string, error) { return "token123", nil }

type stubAudit struct {
	events []domain.AuthEvent
}

func (a *stubAudit) Enqueue(event domain.AuthEvent) {
	a.events = append(a.events, event)
}

func newAuthHandler(local LocalAuth) (*AuthHandler, *stubSessionIssuer, *stubAudit) {
	sessions := &stubSessionIssuer{}
	audit := &stubAudit{}
	h := NewAuthHandler(local, sessions, stubTokenIssuer{}, audit, zerolog.Nop())
	return h, sessions, audit
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthHandler_Register_AutoLogin(t *testing.T) {
	e := newEcho()
	stub := &stubLocalAuth{
		registerFn: func(_ context.Context, identifier, secret string) (*domain.User, error) {
			if identifier != "alice@example.com" {
				t.Fatalf("unexpected identifier: %s", identifier)
			}
			return &domain.User{ID: "user_1", Identifier: identifier, Provider: domain.ProviderLocal}, nil
		},
	}
	h, _, audit := newAuthHandler(stub)

	c, rec := postJSON(e, "/auth/register", `{"identifier":"alice@example.com","password":"correcthorse"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected auto-login token, got %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["identifier"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", user)
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value != "sess_test" {
		t.Fatalf("expected session cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Fatalf("session cookie must be http-only")
	}

	if len(audit.events) != 1 || audit.events[0].Type != domain.EventRegistered {
		t.Fatalf("expected registered audit event, got %+v", audit.events)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := newEcho()
	stub := &stubLocalAuth{
		registerFn: func(_ context.Context, _, _ string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h, _, _ := newAuthHandler(stub)

	c, _ := postJSON(e, "/auth/register", `{"identifier":"bob@example.com","password":"correcthorse"}`)
	err := h.Register(c)
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubLocalAuth{
		registerFn: func(_ context.Context, _, _ string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h, _, _ := newAuthHandler(stub)

	// Short password fails validation before the service is touched.
	c, _ := postJSON(e, "/auth/register", `{"identifier":"bob@example.com","password":"short"}`)
	err := h.Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubLocalAuth{
		authenticateFn: func(_ context.Context, input ports.AuthInput) (domain.AuthResult, error) {
			if input.Credentials == nil || input.Credentials.Identifier != "alice@example.com" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return domain.Authenticated(&domain.User{ID: "user_1", Identifier: "alice@example.com"}), nil
		},
	}
	h, _, audit := newAuthHandler(stub)

	c, rec := postJSON(e, "/auth/login", `{"identifier":"alice@example.com","password":"correcthorse"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessionCookie(rec) == nil {
		t.Fatalf("expected session cookie")
	}
	if len(audit.events) != 1 || audit.events[0].Type != domain.EventLoginSucceeded {
		t.Fatalf("expected login_succeeded audit event, got %+v", audit.events)
	}
}

func TestAuthHandler_Login_RejectedIsGeneric(t *testing.T) {
	e := newEcho()
	for _, reason := range []domain.RejectReason{
		domain.ReasonUnknownIdentifier,
		domain.ReasonNoPasswordSet,
		domain.ReasonBadCredentials,
	} {
		stub := &stubLocalAuth{
			authenticateFn: func(_ context.Context, _ ports.AuthInput) (domain.AuthResult, error) {
				return domain.Rejected(reason), nil
			},
		}
		h, _, audit := newAuthHandler(stub)

		c, rec := postJSON(e, "/auth/login", `{"identifier":"x@example.com","password":"whatever1"}`)
		err := h.Login(c)

		// Every rejection collapses to the same sentinel; the reason only
		// reaches the audit trail.
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("reason %s: expected ErrInvalidCredentials, got %v", reason, err)
		}
		if sessionCookie(rec) != nil {
			t.Fatalf("reason %s: no session may be issued on rejection", reason)
		}
		if len(audit.events) != 1 || audit.events[0].Reason != reason {
			t.Fatalf("reason %s: expected audit event with reason, got %+v", reason, audit.events)
		}
	}
}

func TestAuthHandler_Login_StoreErrorIsNot401(t *testing.T) {
	e := newEcho()
	storeErr := errors.New("mongo unavailable")
	stub := &stubLocalAuth{
		authenticateFn: func(_ context.Context, _ ports.AuthInput) (domain.AuthResult, error) {
			return domain.AuthResult{}, storeErr
		},
	}
	h, _, audit := newAuthHandler(stub)

	c, _ := postJSON(e, "/auth/login", `{"identifier":"x@example.com","password":"whatever1"}`)
	err := h.Login(c)

	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to pass through, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("infrastructure failure must not look like a rejection")
	}
	if len(audit.events) != 0 {
		t.Fatalf("no audit event for infrastructure failure, got %+v", audit.events)
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestAuthHandler_Logout_RevokesSession(t *testing.T) {
	e := newEcho()
	h, sessions, audit := newAuthHandler(&stubLocalAuth{})
	sessions.payloads = map[string]domain.SessionPayload{
		"sess_9": {UserID: "user_9", Identifier: "zoe@example.com"},
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sess_9"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "sess_9" {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}
	cookie := sessionCookie(rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatalf("expected cookie cleared")
	}
	if len(audit.events) != 1 || audit.events[0].Type != domain.EventLoggedOut {
		t.Fatalf("expected logged_out audit event, got %+v", audit.events)
	}
	// The record must name the session owner so the trail stays attributable.
	if audit.events[0].Identifier != "zoe@example.com" {
		t.Fatalf("expected logged_out event for zoe@example.com, got %+v", audit.events[0])
	}
}

func TestAuthHandler_Logout_StaleSessionStillAudited(t *testing.T) {
	e := newEcho()
	h, sessions, audit := newAuthHandler(&stubLocalAuth{})

	// The cookie references a session the store no longer knows. The
	// revoke still runs and the event is recorded without an identity.
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sess_gone"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sessions.revoked) != 1 {
		t.Fatalf("expected revoke to run, got %v", sessions.revoked)
	}
	if len(audit.events) != 1 || audit.events[0].Type != domain.EventLoggedOut {
		t.Fatalf("expected logged_out audit event, got %+v", audit.events)
	}
}

func TestAuthHandler_Logout_WithoutSessionIsIdempotent(t *testing.T) {
	e := newEcho()
	h, sessions, _ := newAuthHandler(&stubLocalAuth{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sessions.revoked) != 0 {
		t.Fatalf("nothing to revoke, got %v", sessions.revoked)
	}
}
