// Package lineworks is the LINE WORKS bot platform client: service-account
// JWT assertion minting, JWT-bearer token exchange, rich menu management, and
// the three-step attachment upload protocol.
package lineworks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/errors"
)

const (
	// TokenEndpoint is the bot platform's OAuth2 token endpoint.
	TokenEndpoint = "https://auth.worksmobile.com/oauth2/v2.0/token"

	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// Assertions are single-use and exchanged immediately, so their
	// lifetime stays at the minimum the platform accepts.
	assertionLifetime = 60 * time.Second
)

// TokenSource mints a fresh assertion and exchanges it for a fresh access
// token on every call. Nothing is cached: the extra round-trip buys a
// zero-persistent-secret footprint.
type TokenSource struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

type TokenSourceOption func(*TokenSource)

// WithTokenEndpoint overrides the platform token endpoint (for tests).
func WithTokenEndpoint(endpoint string) TokenSourceOption {
	return func(ts *TokenSource) {
		ts.endpoint = endpoint
	}
}

// WithTokenNowTime sets the now time function (primarily for testing)
func WithTokenNowTime(nowFunc func() time.Time) TokenSourceOption {
	return func(ts *TokenSource) {
		ts.now = nowFunc
	}
}

func NewTokenSource(options ...TokenSourceOption) *TokenSource {
	ts := &TokenSource{
		endpoint:   TokenEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range options {
		opt(ts)
	}
	return ts
}

// MintAssertion builds and RS256-signs the service-account assertion:
// issuer = client id, subject = service account, lifetime 60s.
func (ts *TokenSource) MintAssertion(creds *identity.BotCredentials) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalizePEM(creds.PrivateKey)))
	if err != nil {
		return "", errors.Wrapf(err, "[MintAssertion] parse service account key")
	}

	now := ts.now()
	claims := jwt.MapClaims{
		"iss": creds.ClientID,
		"sub": creds.ServiceAccount,
		"iat": now.Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", errors.Wrapf(err, "[MintAssertion] sign assertion")
	}
	return assertion, nil
}

// AccessToken exchanges a freshly minted assertion for a bearer token via the
// JWT-bearer grant. Any non-2xx response is a hard failure: credentials are
// either valid or not, and a fresh assertion would not change a config error.
func (ts *TokenSource) AccessToken(ctx context.Context, creds *identity.BotCredentials) (string, error) {
	assertion, err := ts.MintAssertion(creds)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("assertion", assertion)
	form.Set("grant_type", jwtBearerGrant)
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("scope", "bot")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrapf(err, "[AccessToken] build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "[AccessToken] token request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "[AccessToken] read token response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("[AccessToken] token issue failed: %d %s", resp.StatusCode, body)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", errors.Wrapf(err, "[AccessToken] decode token response")
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("[AccessToken] empty access_token in response")
	}
	return token.AccessToken, nil
}

// Keys stored with escaped newlines are normalized before PEM decoding.
func normalizePEM(pem string) string {
	return strings.ReplaceAll(pem, `\n`, "\n")
}
