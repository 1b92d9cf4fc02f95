// Package identity is the RPC client for the backend identity service. The
// broker delegates every credential check to it: password verification,
// Google ID-token validation, SSO code exchange, organization switching, and
// SSO/bot configuration storage.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mtamaramu/authbroker/internal/config"
	"github.com/mtamaramu/authbroker/internal/errors"
)

// Client is the identity backend surface consumed by the broker.
type Client interface {
	Login(ctx context.Context, organizationID, username, password string) (*LoginResult, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error)
	LoginWithSsoProvider(ctx context.Context, req SsoLoginRequest) (*LoginResult, error)
	ResolveSsoProvider(ctx context.Context, provider, externalOrgID string) (*SsoProviderConfig, error)
	SwitchOrganization(ctx context.Context, bearerToken, organizationID string) (*SwitchOrgResult, error)

	GetBotConfigWithSecrets(ctx context.Context, bearerToken, botConfigID string) (*BotCredentials, error)
	ListSsoConfigs(ctx context.Context, bearerToken string) ([]SsoConfig, error)
	UpsertSsoConfig(ctx context.Context, bearerToken string, cfg SsoConfigUpsert) error
	DeleteSsoConfig(ctx context.Context, bearerToken, provider string) error
}

// RPC service paths on the backend.
const (
	authService      = "auth.v1.AuthService"
	botConfigService = "auth.v1.BotConfigService"
	ssoService       = "auth.v1.SsoSettingsService"
)

// HTTPClient implements Client over the backend's POST-JSON-per-procedure
// contract. Each call is one-shot: no retries, no caching.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg config.BackendConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:    cfg.GetBackendBaseURL(),
		httpClient: &http.Client{Timeout: cfg.GetBackendTimeout()},
	}
}

func (c *HTTPClient) Login(ctx context.Context, organizationID, username, password string) (*LoginResult, error) {
	req := struct {
		OrganizationID string `json:"organizationId"`
		Username       string `json:"username"`
		Password       string `json:"password"`
	}{organizationID, username, password}

	var result LoginResult
	if err := c.call(ctx, authService, "Login", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	req := struct {
		IDToken string `json:"idToken"`
	}{idToken}

	var result LoginResult
	if err := c.call(ctx, authService, "LoginWithGoogle", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) LoginWithSsoProvider(ctx context.Context, req SsoLoginRequest) (*LoginResult, error) {
	var result LoginResult
	if err := c.call(ctx, authService, "LoginWithSsoProvider", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ResolveSsoProvider(ctx context.Context, provider, externalOrgID string) (*SsoProviderConfig, error) {
	req := struct {
		Provider      string `json:"provider"`
		ExternalOrgID string `json:"externalOrgId"`
	}{provider, externalOrgID}

	var result SsoProviderConfig
	if err := c.call(ctx, authService, "ResolveSsoProvider", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) SwitchOrganization(ctx context.Context, bearerToken, organizationID string) (*SwitchOrgResult, error) {
	req := struct {
		OrganizationID string `json:"organizationId"`
	}{organizationID}

	var result SwitchOrgResult
	if err := c.call(ctx, authService, "SwitchOrganization", bearerToken, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetBotConfigWithSecrets(ctx context.Context, bearerToken, botConfigID string) (*BotCredentials, error) {
	req := struct {
		ID string `json:"id"`
	}{botConfigID}

	var result BotCredentials
	if err := c.call(ctx, botConfigService, "GetConfigWithSecrets", bearerToken, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListSsoConfigs(ctx context.Context, bearerToken string) ([]SsoConfig, error) {
	var result struct {
		Configs []SsoConfig `json:"configs"`
	}
	if err := c.call(ctx, ssoService, "ListConfigs", bearerToken, struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Configs, nil
}

func (c *HTTPClient) UpsertSsoConfig(ctx context.Context, bearerToken string, cfg SsoConfigUpsert) error {
	return c.call(ctx, ssoService, "UpsertConfig", bearerToken, cfg, &struct{}{})
}

func (c *HTTPClient) DeleteSsoConfig(ctx context.Context, bearerToken, provider string) error {
	req := struct {
		Provider string `json:"provider"`
	}{provider}
	return c.call(ctx, ssoService, "DeleteConfig", bearerToken, req, &struct{}{})
}

// call POSTs the request body to {base}/{service}/{method} and decodes the
// response. A non-2xx status with a decodable {code, message} body becomes an
// *Error (backend rejection); everything else is a transport failure.
func (c *HTTPClient) call(ctx context.Context, service, method, bearerToken string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return errors.Wrapf(err, "[identity.call] marshal %s/%s request", service, method)
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, service, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "[identity.call] build %s/%s request", service, method)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("X-Auth-Token", bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[identity.call] %s/%s", service, method)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "[identity.call] read %s/%s response", service, method)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var rpcErr struct {
			Code    Code   `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &rpcErr); err == nil && rpcErr.Message != "" {
			return &Error{Code: rpcErr.Code, Message: rpcErr.Message}
		}
		return fmt.Errorf("[identity.call] %s/%s: unexpected status %d", service, method, resp.StatusCode)
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return errors.Wrapf(err, "[identity.call] decode %s/%s response", service, method)
	}
	return nil
}
