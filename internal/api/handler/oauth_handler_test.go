package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretsapp/secrets-api/internal/core/domain"
	"github.com/secretsapp/secrets-api/internal/core/ports"
)

type stubProvider struct {
	name       string
	exchangeFn func(ctx context.Context, code, verifier string) (*domain.FederatedIdentity, error)
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) AuthCodeURL(state, _ string) string {
	return "https://idp.example.com/auth?state=" + state
}

func (p *stubProvider) Exchange(ctx context.Context, code, verifier string) (*domain.FederatedIdentity, error) {
	return p.exchangeFn(ctx, code, verifier)
}

type stubResolver struct {
	provider ports.IdentityProvider
}

func (r *stubResolver) Get(name string) (ports.IdentityProvider, error) {
	if r.provider != nil && r.provider.Name() == name {
		return r.provider, nil
	}
	return nil, domain.ErrUnknownProvider
}

type stubFederated struct {
	authenticateFn func(ctx context.Context, input ports.AuthInput) (domain.AuthResult, error)
}

func (s *stubFederated) Authenticate(ctx context.Context, input ports.AuthInput) (domain.AuthResult, error) {
	return s.authenticateFn(ctx, input)
}

func newOAuthHandler(provider ports.IdentityProvider, federated FederatedAuth) (*OAuthHandler, *stubSessionIssuer, *stubAudit) {
	sessions := &stubSessionIssuer{}
	audit := &stubAudit{}
	h := NewOAuthHandler(&stubResolver{provider: provider}, federated, sessions, audit, zerolog.Nop())
	return h, sessions, audit
}

func oauthContext(e *echo.Echo, target string, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func TestOAuthHandler_Login_RedirectsWithStateCookie(t *testing.T) {
	e := echo.New()
	h, _, _ := newOAuthHandler(&stubProvider{name: "google"}, nil)

	c, rec := oauthContext(e, "/oauth/login/google")
	c.SetParamNames("provider")
	c.SetParamValues("google")

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("expected state in redirect URL")
	}

	var stateCookie, pkceCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		switch ck.Name {
		case stateCookieName:
			stateCookie = ck
		case pkceCookieName:
			pkceCookie = ck
		}
	}
	if stateCookie == nil || stateCookie.Value != state {
		t.Fatalf("state cookie must match redirect state")
	}
	if pkceCookie == nil || pkceCookie.Value == "" {
		t.Fatalf("expected pkce cookie")
	}
}

func TestOAuthHandler_Login_UnknownProvider(t *testing.T) {
	e := echo.New()
	h, _, _ := newOAuthHandler(&stubProvider{name: "google"}, nil)

	c, _ := oauthContext(e, "/oauth/login/github")
	c.SetParamNames("provider")
	c.SetParamValues("github")

	if err := h.Login(c); !errors.Is(err, domain.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestOAuthHandler_Callback_Success(t *testing.T) {
	e := echo.New()
	provider := &stubProvider{
		name: "google",
		exchangeFn: func(_ context.Context, code, verifier string) (*domain.FederatedIdentity, error) {
			if code != "auth-code" || verifier != "pkce-verifier" {
				t.Fatalf("unexpected exchange args: %s %s", code, verifier)
			}
			return &domain.FederatedIdentity{
				Provider:   "google",
				SubjectID:  "sub-1",
				Email:      "alice@example.com",
				Identifier: "alice@example.com",
			}, nil
		},
	}
	federated := &stubFederated{
		authenticateFn: func(_ context.Context, input ports.AuthInput) (domain.AuthResult, error) {
			if input.Identity == nil || input.Identity.SubjectID != "sub-1" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return domain.Authenticated(&domain.User{ID: "user_5", Identifier: "alice@example.com", Provider: "google"}), nil
		},
	}
	h, _, audit := newOAuthHandler(provider, federated)

	c, rec := oauthContext(e, "/oauth/callback/google?code=auth-code&state=st1",
		&http.Cookie{Name: stateCookieName, Value: "st1"},
		&http.Cookie{Name: pkceCookieName, Value: "pkce-verifier"},
	)
	c.SetParamNames("provider")
	c.SetParamValues("google")

	if err := h.Callback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessionCookie(rec) == nil {
		t.Fatalf("expected session cookie")
	}
	if len(audit.events) != 1 || audit.events[0].Strategy != "google" {
		t.Fatalf("expected google audit event, got %+v", audit.events)
	}
}

func TestOAuthHandler_Callback_StateMismatch(t *testing.T) {
	e := echo.New()
	h, _, _ := newOAuthHandler(&stubProvider{name: "google"}, nil)

	c, _ := oauthContext(e, "/oauth/callback/google?code=auth-code&state=evil",
		&http.Cookie{Name: stateCookieName, Value: "st1"},
		&http.Cookie{Name: pkceCookieName, Value: "pkce-verifier"},
	)
	c.SetParamNames("provider")
	c.SetParamValues("google")

	err := h.Callback(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on state mismatch, got %v", err)
	}
}

func TestOAuthHandler_Callback_ExchangeFailure(t *testing.T) {
	e := echo.New()
	provider := &stubProvider{
		name: "google",
		exchangeFn: func(_ context.Context, _, _ string) (*domain.FederatedIdentity, error) {
			return nil, errors.New("code already redeemed")
		},
	}
	h, _, _ := newOAuthHandler(provider, nil)

	c, _ := oauthContext(e, "/oauth/callback/google?code=auth-code&state=st1",
		&http.Cookie{Name: stateCookieName, Value: "st1"},
		&http.Cookie{Name: pkceCookieName, Value: "pkce-verifier"},
	)
	c.SetParamNames("provider")
	c.SetParamValues("google")

	err := h.Callback(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on exchange failure, got %v", err)
	}
}

func TestOAuthHandler_Callback_ProviderError(t *testing.T) {
	e := echo.New()
	h, _, _ := newOAuthHandler(&stubProvider{name: "google"}, nil)

	c, _ := oauthContext(e, "/oauth/callback/google?error=access_denied")
	c.SetParamNames("provider")
	c.SetParamValues("google")

	err := h.Callback(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on provider error, got %v", err)
	}
}
