package flow

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/mtamaramu/authbroker/internal/errors"
	"github.com/mtamaramu/authbroker/security"
)

// googleEndpoint avoids pulling in the oauth2/google subpackage for two
// constant URLs.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

var googleScopes = []string{"openid", "email", "profile"}

const googleCallbackPath = "/oauth/google/callback"

func (c *Controller) googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.GetGoogleClientID(),
		ClientSecret: c.cfg.GetGoogleClientSecret(),
		RedirectURL:  c.cfg.GetBrokerOrigin() + googleCallbackPath,
		Endpoint:     c.googleEndpoint,
		Scopes:       googleScopes,
	}
}

// StartGoogle validates the redirect target and builds the Google
// authorization URL carrying signed state. An optional joinOrg marker rides
// along in the state for the membership-request flow.
func (c *Controller) StartGoogle(redirectURI, joinOrg string) (string, error) {
	if c.cfg.GetGoogleClientID() == "" {
		return "", errors.ErrProviderNotConfigured
	}
	if !security.IsAllowedRedirectURI(redirectURI, c.cfg.GetAllowedRedirectOrigins()) {
		return "", errors.ErrInvalidRedirectURI
	}

	state, err := c.states.Issue(security.StatePayload{
		RedirectURI: redirectURI,
		JoinOrg:     joinOrg,
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("event", "google_redirect").Str("redirect_uri", redirectURI).Msg("google oauth start")

	return c.googleOAuthConfig().AuthCodeURL(state,
		oauth2.SetAuthURLParam("access_type", "online"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	), nil
}

// CallbackGoogle verifies the returned state, exchanges the authorization
// code with Google, verifies the resulting ID token, and trades it with the
// identity backend for a session.
func (c *Controller) CallbackGoogle(ctx context.Context, code, state string) (*Outcome, error) {
	payload, err := c.verifyCallbackState(state)
	if err != nil {
		return nil, err
	}

	token, err := c.googleOAuthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrapf(err, "[CallbackGoogle] code exchange")
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.Wrapf(errors.ErrProviderDenied, "[CallbackGoogle] no ID token in response")
	}
	if err := c.verifyGoogleToken(ctx, rawIDToken); err != nil {
		return nil, errors.Wrapf(err, "[CallbackGoogle] ID token verification")
	}

	session, err := c.identity.LoginWithGoogle(ctx, rawIDToken)
	if err != nil {
		log.Info().Str("event", "google_login_failure").Err(err).Msg("google login rejected")
		return nil, err
	}

	log.Info().Str("event", "google_login_success").Str("redirect_uri", payload.RedirectURI).Msg("google login")
	return &Outcome{
		Session:     session,
		RedirectURI: payload.RedirectURI,
		JoinOrg:     payload.JoinOrg,
	}, nil
}

// oidcVerify checks the ID token's signature and audience against the
// issuer's published keys.
func (c *Controller) oidcVerify(ctx context.Context, rawIDToken string) error {
	provider, err := oidc.NewProvider(ctx, c.cfg.GetGoogleIssuer())
	if err != nil {
		return errors.Wrapf(err, "[oidcVerify] issuer discovery")
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: c.cfg.GetGoogleClientID()})
	if _, err := verifier.Verify(ctx, rawIDToken); err != nil {
		return errors.Wrapf(err, "[oidcVerify] verify ID token")
	}
	return nil
}
