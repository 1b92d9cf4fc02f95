// Package flow drives the two-leg redirect flow for each login provider:
// outbound authorization redirect carrying signed state, and the inbound
// callback that verifies state, exchanges the authorization code, and obtains
// a session token from the identity backend.
//
// The broker keeps no per-flow state: correctness from redirect to callback
// depends entirely on the provider faithfully echoing the signed state value.
package flow

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/config"
	"github.com/mtamaramu/authbroker/internal/errors"
	"github.com/mtamaramu/authbroker/security"
)

// Provider names as they appear in signed state and backend calls.
const (
	ProviderPassword  = "password"
	ProviderGoogle    = "google"
	ProviderLineWorks = "lineworks"
)

// Outcome is a successfully exchanged login: the backend-issued session plus
// the routing context recovered from signed state.
type Outcome struct {
	Session     *identity.LoginResult
	RedirectURI string
	JoinOrg     string
}

// IDTokenVerifier checks a provider-issued ID token before it is forwarded
// to the identity backend.
type IDTokenVerifier func(ctx context.Context, rawIDToken string) error

// Controller orchestrates all provider flows against one configuration and
// one identity backend. Safe for concurrent use; it holds no mutable state.
type Controller struct {
	cfg      config.Config
	identity identity.Client
	states   *security.StateSigner

	googleEndpoint    oauth2.Endpoint
	verifyGoogleToken IDTokenVerifier
	lineWorksAuthURL  string
}

type ControllerOption func(*Controller)

// WithGoogleEndpoint overrides the Google OAuth2 endpoint (for tests).
func WithGoogleEndpoint(endpoint oauth2.Endpoint) ControllerOption {
	return func(c *Controller) {
		c.googleEndpoint = endpoint
	}
}

// WithIDTokenVerifier overrides Google ID-token verification (for tests).
func WithIDTokenVerifier(verify IDTokenVerifier) ControllerOption {
	return func(c *Controller) {
		c.verifyGoogleToken = verify
	}
}

// WithLineWorksAuthorizeURL overrides the LINE WORKS authorize URL (for
// tests).
func WithLineWorksAuthorizeURL(authorizeURL string) ControllerOption {
	return func(c *Controller) {
		c.lineWorksAuthURL = authorizeURL
	}
}

func NewController(cfg config.Config, identityClient identity.Client, options ...ControllerOption) *Controller {
	c := &Controller{
		cfg:              cfg,
		identity:         identityClient,
		states:           security.NewStateSigner(cfg.GetStateSecret()),
		googleEndpoint:   googleEndpoint,
		lineWorksAuthURL: lineWorksAuthorizeURL,
	}
	c.verifyGoogleToken = c.oidcVerify
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Password exchanges form credentials directly with the backend; there is no
// external hop and therefore no signed state.
func (c *Controller) Password(ctx context.Context, organizationID, username, password, redirectURI string) (*Outcome, error) {
	if !security.IsAllowedRedirectURI(redirectURI, c.cfg.GetAllowedRedirectOrigins()) {
		return nil, errors.ErrInvalidRedirectURI
	}

	log.Info().Str("event", "login_attempt").Str("username", username).Str("org_id", organizationID).Msg("password login")

	session, err := c.identity.Login(ctx, organizationID, username, password)
	if err != nil {
		log.Info().Str("event", "login_failure").Str("username", username).Err(err).Msg("password login rejected")
		return nil, err
	}

	log.Info().Str("event", "login_success").Str("username", username).Msg("password login")
	return &Outcome{Session: session, RedirectURI: redirectURI}, nil
}

// WoffLogin authenticates a LINE WORKS in-app (WOFF) access token. There is
// no redirect leg: the token was obtained by the embedded app itself.
func (c *Controller) WoffLogin(ctx context.Context, accessToken, domainID, redirectURI string) (*identity.LoginResult, error) {
	if !security.IsAllowedRedirectURI(redirectURI, c.cfg.GetAllowedRedirectOrigins()) {
		return nil, errors.ErrInvalidRedirectURI
	}

	log.Info().Str("event", "woff_auth").Str("domain_id", domainID).Msg("woff login")

	session, err := c.identity.LoginWithSsoProvider(ctx, identity.SsoLoginRequest{
		Provider:      ProviderLineWorks,
		ExternalOrgID: domainID,
		AccessToken:   accessToken,
	})
	if err != nil {
		log.Info().Str("event", "woff_auth_failure").Str("domain_id", domainID).Err(err).Msg("woff login rejected")
		return nil, err
	}

	log.Info().Str("event", "woff_auth_success").Str("domain_id", domainID).Msg("woff login")
	return session, nil
}

// ResolveWoffConfig looks up the WOFF app id configured for a domain.
func (c *Controller) ResolveWoffConfig(ctx context.Context, domain string) (*identity.SsoProviderConfig, error) {
	return c.identity.ResolveSsoProvider(ctx, ProviderLineWorks, domain)
}

// VerifyState validates a callback's state parameter and returns its
// payload. Callbacks use it up front so that a later exchange failure can
// still be routed back to the validated redirect target.
func (c *Controller) VerifyState(state string) (*security.StatePayload, error) {
	return c.verifyCallbackState(state)
}

// verifyCallbackState is the shared callback-side validation: signature check
// followed by re-validation of the embedded redirect target, since the value
// travelled through an uncontrolled third party.
func (c *Controller) verifyCallbackState(state string) (*security.StatePayload, error) {
	payload, err := c.states.Verify(state)
	if err != nil {
		return nil, err
	}
	if !security.IsAllowedRedirectURI(payload.RedirectURI, c.cfg.GetAllowedRedirectOrigins()) {
		return nil, errors.ErrInvalidRedirectURI
	}
	return payload, nil
}
