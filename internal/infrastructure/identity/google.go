package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/secretsapp/secrets-api/internal/core/domain"
)

const googleIssuer = "https://accounts.google.com"

// GoogleProvider implements ports.IdentityProvider against Google's OIDC
// endpoints. Discovery runs once at construction.
type GoogleProvider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

func NewGoogleProvider(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google provider: missing required config")
	}

	oidcProvider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google provider: discovery: %w", err)
	}

	return &GoogleProvider{
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func (p *GoogleProvider) Name() string { return domain.ProviderGoogle }

// AuthCodeURL builds the authorization URL with PKCE parameters.
func (p *GoogleProvider) AuthCodeURL(state, pkceVerifier string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(pkceVerifier),
	)
}

// Exchange redeems the code, verifies the id_token, and normalizes the
// claims. Only the verified assertion leaves this package.
func (p *GoogleProvider) Exchange(ctx context.Context, code, pkceVerifier string) (*domain.FederatedIdentity, error) {
	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(pkceVerifier))
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google exchange: no id_token in response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google exchange: verify id_token: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google exchange: parse claims: %w", err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("google exchange: id_token missing required claims")
	}

	return &domain.FederatedIdentity{
		Provider:   domain.ProviderGoogle,
		SubjectID:  claims.Subject,
		Email:      claims.Email,
		Identifier: claims.Email,
	}, nil
}
