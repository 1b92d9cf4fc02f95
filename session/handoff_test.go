package session_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/session"
)

type securityConfig struct{}

func (securityConfig) GetAllowedRedirectOrigins() string { return "https://app.mtamaramu.com" }
func (securityConfig) GetStateSecret() string            { return "secret" }
func (securityConfig) GetAuthCookieName() string         { return "logi_auth_token" }

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func TestDecodeClaims(t *testing.T) {
	t.Run("all claims present", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"sub":      "user-1",
			"org":      "org-1",
			"org_slug": "acme",
			"username": "tanaka@example.com",
			"provider": "google",
			"exp":      float64(4102444800),
		})
		claims := session.DecodeClaims(token)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "org-1", claims.OrgID)
		require.Equal(t, "acme", claims.OrgSlug)
		require.Equal(t, "tanaka@example.com", claims.Username)
		require.Equal(t, "google", claims.Provider)
		require.Equal(t, int64(4102444800), claims.ExpiresAt)
	})

	t.Run("malformed token yields zero claims", func(t *testing.T) {
		require.Zero(t, session.DecodeClaims("not-a-jwt"))
		require.Zero(t, session.DecodeClaims(""))
		require.Zero(t, session.DecodeClaims("a.b.c"))
	})

	t.Run("non-string claim values ignored", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"org": 42, "sub": "user-1"})
		claims := session.DecodeClaims(token)
		require.Equal(t, "user-1", claims.Subject)
		require.Empty(t, claims.OrgID)
	})
}

func TestParseExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("unix seconds", func(t *testing.T) {
		require.Equal(t, int64(4102444800), session.ParseExpiry("4102444800", now))
	})

	t.Run("RFC3339", func(t *testing.T) {
		require.Equal(t, int64(4102444800), session.ParseExpiry("2100-01-01T00:00:00Z", now))
	})

	t.Run("garbage defaults to now plus one day", func(t *testing.T) {
		require.Equal(t, now.Add(24*time.Hour).Unix(), session.ParseExpiry("soon", now))
	})

	t.Run("empty defaults to now plus one day", func(t *testing.T) {
		require.Equal(t, now.Add(24*time.Hour).Unix(), session.ParseExpiry("", now))
	})

	t.Run("short numeric string treated as non-unix", func(t *testing.T) {
		require.Equal(t, now.Add(24*time.Hour).Unix(), session.ParseExpiry("12345", now))
	})

	t.Run("overflowing numeric string defaults instead of wrapping", func(t *testing.T) {
		require.Equal(t, now.Add(24*time.Hour).Unix(), session.ParseExpiry("99999999999999999999", now))
	})
}

func TestParentDomain(t *testing.T) {
	require.Equal(t, "mtamaramu.com", session.ParentDomain("app.mtamaramu.com"))
	require.Equal(t, "mtamaramu.com", session.ParentDomain("deep.nested.app.mtamaramu.com"))
	require.Equal(t, "mtamaramu.com", session.ParentDomain("mtamaramu.com"))
	require.Equal(t, "localhost", session.ParentDomain("localhost"))
}

func TestHandoff_Destination(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	handoff := session.NewHandoff(securityConfig{}, session.WithNowTime(func() time.Time { return now }))

	token := signedToken(t, jwt.MapClaims{"org": "org-1", "exp": float64(now.Add(time.Hour).Unix())})
	result := &identity.LoginResult{Token: token, ExpiresAt: "4102444800"}

	t.Run("fragment carries token, expiry, and org id", func(t *testing.T) {
		dest, err := handoff.Destination("https://app.mtamaramu.com/callback", result)
		require.NoError(t, err)

		hash := strings.Index(dest, "#")
		require.Greater(t, hash, 0)
		fragment, err := url.ParseQuery(dest[hash+1:])
		require.NoError(t, err)
		require.Equal(t, token, fragment.Get("token"))
		require.Equal(t, "4102444800", fragment.Get("expires_at"))
		require.Equal(t, "org-1", fragment.Get("org_id"))
	})

	t.Run("callback marker added once", func(t *testing.T) {
		dest, err := handoff.Destination("https://app.mtamaramu.com/?lw_callback=1", result)
		require.NoError(t, err)
		require.Equal(t, 1, strings.Count(dest, "lw_callback=1"))

		dest, err = handoff.Destination("https://app.mtamaramu.com/callback", result)
		require.NoError(t, err)
		require.Contains(t, dest, "lw_callback=1")
	})

	t.Run("token never appears in the query string", func(t *testing.T) {
		dest, err := handoff.Destination("https://app.mtamaramu.com/callback", result)
		require.NoError(t, err)
		hash := strings.Index(dest, "#")
		require.NotContains(t, dest[:hash], token)
	})

	t.Run("org_id omitted when token is opaque", func(t *testing.T) {
		opaque := &identity.LoginResult{Token: "opaque-token", ExpiresAt: "4102444800"}
		dest, err := handoff.Destination("https://app.mtamaramu.com/callback", opaque)
		require.NoError(t, err)
		require.NotContains(t, dest, "org_id=")
	})
}

func TestHandoff_JoinDestination(t *testing.T) {
	handoff := session.NewHandoff(securityConfig{})
	result := &identity.LoginResult{Token: "tok", ExpiresAt: "4102444800"}

	dest := handoff.JoinDestination("https://auth.mtamaramu.com", "acme", result)
	require.True(t, strings.HasPrefix(dest, "https://auth.mtamaramu.com/join/acme/done#"))
	require.Contains(t, dest, "token=tok")
}

func TestHandoff_Cookie(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	handoff := session.NewHandoff(securityConfig{}, session.WithNowTime(func() time.Time { return now }))

	t.Run("scoped to parent domain with remaining lifetime", func(t *testing.T) {
		result := &identity.LoginResult{Token: "tok", ExpiresAt: "2026-03-01T13:00:00Z"}
		cookie := handoff.Cookie("https://app.mtamaramu.com/callback", result)
		require.Equal(t, "logi_auth_token", cookie.Name)
		require.Equal(t, "tok", cookie.Value)
		require.Equal(t, "mtamaramu.com", cookie.Domain)
		require.Equal(t, "/", cookie.Path)
		require.Equal(t, 3600, cookie.MaxAge)
		require.True(t, cookie.Secure)
		require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	})

	t.Run("expired token clamps to zero", func(t *testing.T) {
		result := &identity.LoginResult{Token: "tok", ExpiresAt: "2026-03-01T11:00:00Z"}
		cookie := handoff.Cookie("https://app.mtamaramu.com/callback", result)
		require.Equal(t, 0, cookie.MaxAge)
	})
}
