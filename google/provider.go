// Package google verifies Google sign-in for the code and ID token callbacks.
package google

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/telecare/auth-server/internal/config"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const (
	Issuer   = "https://accounts.google.com"
	certsURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// ErrVerification wraps every failure to prove a Google identity.
var ErrVerification = errors.New("google verification failed")

// Claims are the identity facts taken from a verified Google ID token.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type Provider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Claims, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (*Claims, error)
}

type OIDCProvider struct {
	oauth    *oauth2.Config
	keySet   oidc.KeySet
	verifier *oidc.IDTokenVerifier
}

var _ Provider = (*OIDCProvider)(nil)

type ProviderOption func(*OIDCProvider)

// WithEndpoint replaces the Google OAuth endpoints (primarily for testing)
func WithEndpoint(endpoint oauth2.Endpoint) ProviderOption {
	return func(p *OIDCProvider) {
		p.oauth.Endpoint = endpoint
	}
}

// WithKeySet replaces Google's published signing keys (primarily for testing)
func WithKeySet(keySet oidc.KeySet) ProviderOption {
	return func(p *OIDCProvider) {
		p.keySet = keySet
	}
}

func NewOIDCProvider(cfg config.GoogleConfig, options ...ProviderOption) *OIDCProvider {
	p := &OIDCProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.GetGoogleClientID(),
			ClientSecret: cfg.GetGoogleClientSecret(),
			RedirectURL:  cfg.GetGoogleRedirectURL(),
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}
	for _, opt := range options {
		opt(p)
	}
	if p.keySet == nil {
		p.keySet = oidc.NewRemoteKeySet(context.Background(), certsURL)
	}
	p.verifier = oidc.NewVerifier(Issuer, p.keySet, &oidc.Config{ClientID: p.oauth.ClientID})
	return p
}

func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode trades an authorization code for tokens and verifies the ID token returned with them.
func (p *OIDCProvider) ExchangeCode(ctx context.Context, code string) (*Claims, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrapf(ErrVerification, "[OIDCProvider.ExchangeCode] exchange: %v", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.Wrap(ErrVerification, "[OIDCProvider.ExchangeCode] no id_token in response")
	}
	return p.VerifyIDToken(ctx, rawIDToken)
}

func (p *OIDCProvider) VerifyIDToken(ctx context.Context, rawIDToken string) (*Claims, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrapf(ErrVerification, "[OIDCProvider.VerifyIDToken] %v", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrapf(ErrVerification, "[OIDCProvider.VerifyIDToken] claims: %v", err)
	}
	return &Claims{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}
