package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/bishowshrestha9/code-fyp/internal/apperror"
)

// googleIssuer is Google's OIDC discovery root. Endpoint URLs and signing
// keys are fetched from its .well-known configuration.
const googleIssuer = "https://accounts.google.com"

// GoogleIdentity is the federated identity extracted from a verified Google
// ID token. Subject is Google's stable user id; Email is the login key used
// to match or create a local account.
type GoogleIdentity struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"email_verified"`
}

// GoogleProvider wraps the OAuth2 authorization-code flow against Google.
//
// STATELESS FLOW:
// No pending-authorization record is kept between redirect and callback, so
// there is no state parameter to round-trip. What makes the callback
// trustworthy is the ID token: it is signed by Google, and the verifier
// checks the signature, issuer, audience, and expiry before any claim is
// believed. An attacker cannot fabricate a callback that passes Verify.
type GoogleProvider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleProvider performs OIDC discovery against Google and builds the
// OAuth2 config. The callbackURL must exactly match an authorized redirect
// URI of the OAuth client in the Google console.
func NewGoogleProvider(ctx context.Context, clientID, clientSecret, callbackURL string) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("auth: creating Google OIDC provider: %w", err)
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthURL returns the Google authorization URL the browser should visit.
func (p *GoogleProvider) AuthURL() string {
	return p.oauth.AuthCodeURL("", oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the authorization code for tokens,
// verifies the ID token, and extracts the federated identity.
//
// Returns apperror.ErrProvider when Google yields no usable identity or the
// identity has no email — the bridge cannot match a local account without one.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleIdentity, error) {
	oauthToken, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok {
		return nil, apperror.ProviderError("no id_token in Google response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("auth: verifying Google ID token: %w", err)
	}

	var identity GoogleIdentity
	if err := idToken.Claims(&identity); err != nil {
		return nil, fmt.Errorf("auth: decoding ID token claims: %w", err)
	}

	if identity.Subject == "" {
		return nil, apperror.ProviderError("Google returned no subject identifier")
	}
	if identity.Email == "" {
		return nil, apperror.ProviderError("Google returned no email address")
	}
	if identity.Name == "" {
		// Some accounts hide the display name; fall back to the email.
		identity.Name = identity.Email
	}

	return &identity, nil
}
