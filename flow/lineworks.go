package flow

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/errors"
	"github.com/mtamaramu/authbroker/security"
)

const (
	lineWorksAuthorizeURL = "https://auth.worksmobile.com/oauth2/v2.0/authorize"
	lineWorksScope        = "user.profile.read"
	lineWorksCallbackPath = "/oauth/lineworks/callback"
)

// DomainFromAddress extracts the LINE WORKS domain from a user-supplied
// address: "tanaka@ohishi" yields "ohishi", a bare domain passes through.
func DomainFromAddress(address string) string {
	if at := strings.Index(address, "@"); at >= 0 {
		return address[at+1:]
	}
	return address
}

// StartLineWorks validates the redirect target, resolves the organization's
// provider configuration through the identity backend, and builds the
// LINE WORKS authorization URL with provider context in the signed state.
// A backend rejection or an unconfigured domain is reported to the caller so
// it can route the user back to the generic login with the message.
func (c *Controller) StartLineWorks(ctx context.Context, redirectURI, address string) (string, error) {
	if !security.IsAllowedRedirectURI(redirectURI, c.cfg.GetAllowedRedirectOrigins()) {
		return "", errors.ErrInvalidRedirectURI
	}
	domain := DomainFromAddress(address)
	if domain == "" {
		return "", errors.Wrapf(errors.ErrProviderNotConfigured, "[StartLineWorks] empty domain")
	}

	log.Info().Str("event", "lw_redirect").Str("domain", domain).Str("redirect_uri", redirectURI).Msg("lineworks oauth requested")

	providerCfg, err := c.identity.ResolveSsoProvider(ctx, ProviderLineWorks, domain)
	if err != nil {
		log.Info().Str("event", "lw_redirect_error").Str("domain", domain).Err(err).Msg("provider resolution failed")
		return "", err
	}
	if !providerCfg.Available {
		log.Info().Str("event", "lw_not_configured").Str("domain", domain).Msg("provider not configured")
		return "", errors.Wrapf(errors.ErrProviderNotConfigured, "LINE WORKS login is not configured for %q", domain)
	}

	state, err := c.states.Issue(security.StatePayload{
		RedirectURI:   redirectURI,
		Provider:      ProviderLineWorks,
		ExternalOrgID: domain,
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("event", "lw_oauth_start").Str("domain", domain).Str("client_id", providerCfg.ClientID).Msg("lineworks oauth start")

	authorize, err := url.Parse(c.lineWorksAuthURL)
	if err != nil {
		return "", errors.Wrapf(err, "[StartLineWorks] parse authorize URL")
	}
	query := authorize.Query()
	query.Set("client_id", providerCfg.ClientID)
	query.Set("redirect_uri", c.cfg.GetBrokerOrigin()+lineWorksCallbackPath)
	query.Set("response_type", "code")
	query.Set("scope", lineWorksScope)
	query.Set("state", state)
	authorize.RawQuery = query.Encode()

	return authorize.String(), nil
}

// CallbackLineWorks verifies the returned state and exchanges the
// authorization code through the identity backend, which performs the
// provider token exchange and user provisioning in one step.
func (c *Controller) CallbackLineWorks(ctx context.Context, code, state string) (*Outcome, error) {
	payload, err := c.verifyCallbackState(state)
	if err != nil {
		return nil, err
	}
	if payload.Provider == "" || payload.ExternalOrgID == "" {
		return nil, errors.ErrInvalidState
	}

	session, err := c.identity.LoginWithSsoProvider(ctx, identity.SsoLoginRequest{
		Provider:      payload.Provider,
		ExternalOrgID: payload.ExternalOrgID,
		Code:          code,
		RedirectURI:   c.cfg.GetBrokerOrigin() + lineWorksCallbackPath,
	})
	if err != nil {
		log.Info().Str("event", "lw_login_failure").Str("external_org_id", payload.ExternalOrgID).Err(err).Msg("lineworks login rejected")
		return nil, err
	}

	log.Info().Str("event", "lw_login_success").Str("external_org_id", payload.ExternalOrgID).Str("redirect_uri", payload.RedirectURI).Msg("lineworks login")
	return &Outcome{
		Session:     session,
		RedirectURI: payload.RedirectURI,
		JoinOrg:     payload.JoinOrg,
	}, nil
}
