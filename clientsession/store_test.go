package clientsession_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mtamaramu/authbroker/clientsession"
)

const (
	appOrigin    = "https://app.mtamaramu.com"
	brokerOrigin = "https://auth.mtamaramu.com"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*clientsession.Store, *clientsession.MemoryKV, *clientsession.MemoryCookieJar) {
	t.Helper()
	kv := clientsession.NewMemoryKV()
	jar := clientsession.NewMemoryCookieJar()
	store := clientsession.NewStore(kv, jar, appOrigin, brokerOrigin,
		clientsession.WithNowTime(func() time.Time { return now }))
	return store, kv, jar
}

func sessionJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func TestStore_ConsumeFragment(t *testing.T) {
	t.Run("valid fragment yields authenticated session", func(t *testing.T) {
		store, _, _ := newStore(t)
		token := sessionJWT(t, jwt.MapClaims{
			"org":      "org-1",
			"username": "tanaka@example.com",
			"provider": "lineworks",
			"exp":      float64(now.Add(time.Hour).Unix()),
		})

		ok := store.ConsumeFragment("#token=" + token + "&expires_at=9999999999&org_id=O")
		require.True(t, ok)
		require.True(t, store.IsAuthenticated())

		record := store.Current()
		require.Equal(t, "O", record.OrgID)
		require.Equal(t, token, record.Token)
		require.Equal(t, int64(9999999999), record.ExpiresAt)
		require.Equal(t, "tanaka@example.com", record.Username)
		require.Equal(t, "lineworks", record.Provider)
	})

	t.Run("persists to both stores", func(t *testing.T) {
		store, kv, jar := newStore(t)
		token := sessionJWT(t, jwt.MapClaims{"exp": float64(now.Add(time.Hour).Unix())})

		require.True(t, store.ConsumeFragment("token="+token+"&expires_at=9999999999&org_id=O"))
		_, stored := kv.Get("logi_auth")
		require.True(t, stored)
		cookieToken, ok := jar.Get("logi_auth_token")
		require.True(t, ok)
		require.Equal(t, token, cookieToken)
	})

	t.Run("opaque token accepted without claims", func(t *testing.T) {
		store, _, _ := newStore(t)
		require.True(t, store.ConsumeFragment("token=opaque&expires_at=9999999999&org_id=O"))
		require.Empty(t, store.Current().Username)
		require.True(t, store.IsAuthenticated())
	})

	t.Run("unparseable expiry defaults to one day", func(t *testing.T) {
		store, _, _ := newStore(t)
		require.True(t, store.ConsumeFragment("token=tok&expires_at=later&org_id=O"))
		require.Equal(t, now.Add(24*time.Hour).Unix(), store.Current().ExpiresAt)
	})

	t.Run("missing token or org_id rejected", func(t *testing.T) {
		store, _, _ := newStore(t)
		require.False(t, store.ConsumeFragment("org_id=O"))
		require.False(t, store.ConsumeFragment("token=tok"))
		require.False(t, store.ConsumeFragment(""))
	})

	t.Run("idempotent", func(t *testing.T) {
		store, _, _ := newStore(t)
		fragment := "token=tok&expires_at=9999999999&org_id=O"
		require.True(t, store.ConsumeFragment(fragment))
		first := *store.Current()
		require.True(t, store.ConsumeFragment(fragment))
		require.Equal(t, first, *store.Current())
	})
}

func TestStore_Load(t *testing.T) {
	t.Run("round trip through storage", func(t *testing.T) {
		store, kv, jar := newStore(t)
		require.True(t, store.ConsumeFragment("token=tok&expires_at=9999999999&org_id=O"))

		reloaded := clientsession.NewStore(kv, jar, appOrigin, brokerOrigin,
			clientsession.WithNowTime(func() time.Time { return now }))
		record := reloaded.Load()
		require.NotNil(t, record)
		require.Equal(t, "O", record.OrgID)
		require.True(t, reloaded.IsAuthenticated())
	})

	t.Run("expired record purges both stores", func(t *testing.T) {
		store, kv, jar := newStore(t)
		require.True(t, store.ConsumeFragment("token=tok&expires_at=9999999999&org_id=O"))

		later := now.Add(400 * 24 * time.Hour)
		expired := clientsession.NewStore(kv, jar, appOrigin, brokerOrigin,
			clientsession.WithNowTime(func() time.Time { return later }))
		require.Nil(t, expired.Load())
		require.False(t, expired.IsAuthenticated())
		_, stored := kv.Get("logi_auth")
		require.False(t, stored)
		_, cookieOK := jar.Get("logi_auth_token")
		require.False(t, cookieOK)
	})

	t.Run("no record", func(t *testing.T) {
		store, _, _ := newStore(t)
		require.Nil(t, store.Load())
	})

	t.Run("backfills claims from token", func(t *testing.T) {
		store, kv, jar := newStore(t)
		token := sessionJWT(t, jwt.MapClaims{
			"username": "tanaka@example.com",
			"provider": "google",
			"org_slug": "acme",
			"exp":      float64(now.Add(time.Hour).Unix()),
		})
		// A record persisted before display claims were denormalized.
		kv.Set("logi_auth", `{"token":"`+token+`","orgId":"O","expiresAt":9999999999}`)
		_ = jar

		record := store.Load()
		require.NotNil(t, record)
		require.Equal(t, "tanaka@example.com", record.Username)
		require.Equal(t, "google", record.Provider)
		require.Equal(t, "acme", record.OrgSlug)
	})
}

func TestStore_RecoverFromCookie(t *testing.T) {
	t.Run("valid cookie backfills durable store", func(t *testing.T) {
		store, kv, jar := newStore(t)
		token := sessionJWT(t, jwt.MapClaims{
			"org": "org-1",
			"exp": float64(now.Add(time.Hour).Unix()),
		})
		jar.Set(clientsession.Cookie{Name: "logi_auth_token", Value: token, Domain: "mtamaramu.com", Path: "/", MaxAge: 3600})

		require.True(t, store.RecoverFromCookie())
		require.True(t, store.IsAuthenticated())
		require.Equal(t, "org-1", store.Current().OrgID)
		_, stored := kv.Get("logi_auth")
		require.True(t, stored)
	})

	t.Run("expired token in cookie not trusted", func(t *testing.T) {
		store, _, jar := newStore(t)
		token := sessionJWT(t, jwt.MapClaims{"exp": float64(now.Add(-time.Hour).Unix())})
		jar.Set(clientsession.Cookie{Name: "logi_auth_token", Value: token, Domain: "mtamaramu.com", Path: "/", MaxAge: 3600})

		require.False(t, store.RecoverFromCookie())
		require.False(t, store.IsAuthenticated())
	})

	t.Run("opaque token not trusted", func(t *testing.T) {
		store, _, jar := newStore(t)
		jar.Set(clientsession.Cookie{Name: "logi_auth_token", Value: "opaque", Domain: "mtamaramu.com", Path: "/", MaxAge: 3600})
		require.False(t, store.RecoverFromCookie())
	})

	t.Run("no cookie", func(t *testing.T) {
		store, _, _ := newStore(t)
		require.False(t, store.RecoverFromCookie())
	})

	t.Run("syncs domain preference cookie", func(t *testing.T) {
		store, _, jar := newStore(t)
		token := sessionJWT(t, jwt.MapClaims{"org": "org-1", "exp": float64(now.Add(time.Hour).Unix())})
		jar.Set(clientsession.Cookie{Name: "logi_auth_token", Value: token, Domain: "mtamaramu.com", Path: "/", MaxAge: 3600})
		jar.Set(clientsession.Cookie{Name: "lw_domain", Value: "ohishi", Domain: "mtamaramu.com", Path: "/", MaxAge: 3600})

		require.True(t, store.RecoverFromCookie())
		require.Equal(t, "ohishi", store.DomainPreference())
	})
}

func TestStore_Logout(t *testing.T) {
	store, kv, jar := newStore(t)
	require.True(t, store.ConsumeFragment("token=tok&expires_at=9999999999&org_id=O"))
	store.SaveDomainPreference("ohishi")

	loginURL := store.Logout()
	require.Equal(t, brokerOrigin+"/login?redirect_uri=https%3A%2F%2Fapp.mtamaramu.com%2F%3Flw_callback%3D1", loginURL)
	require.False(t, store.IsAuthenticated())
	require.Nil(t, store.Current())
	_, stored := kv.Get("logi_auth")
	require.False(t, stored)
	require.Empty(t, store.DomainPreference())
	require.Zero(t, jar.Len())
}

func TestStore_DomainPreference(t *testing.T) {
	t.Run("dual write and read back", func(t *testing.T) {
		store, kv, jar := newStore(t)
		store.SaveDomainPreference("ohishi")
		require.Equal(t, "ohishi", store.DomainPreference())
		_, stored := kv.Get("logi_lw_domain")
		require.True(t, stored)
		v, ok := jar.Get("lw_domain")
		require.True(t, ok)
		require.Equal(t, "ohishi", v)
	})

	t.Run("login URL starts provider flow directly", func(t *testing.T) {
		store, _, _ := newStore(t)
		store.SaveDomainPreference("ohishi")
		url := store.LoginURL()
		require.Contains(t, url, brokerOrigin+"/oauth/lineworks/redirect?")
		require.Contains(t, url, "address=ohishi")
	})

	t.Run("login URL falls back to provider selection", func(t *testing.T) {
		store, _, _ := newStore(t)
		require.Contains(t, store.LoginURL(), brokerOrigin+"/login?redirect_uri=")
	})

	t.Run("auto-login URL", func(t *testing.T) {
		store, _, _ := newStore(t)
		require.Empty(t, store.AutoLoginURL())
		store.SaveDomainPreference("ohishi")
		require.Equal(t, appOrigin+"/?lw=ohishi", store.AutoLoginURL())
	})

	t.Run("survives logout of session but not explicit clear", func(t *testing.T) {
		store, _, _ := newStore(t)
		store.SaveDomainPreference("ohishi")
		store.ClearDomainPreference()
		require.Empty(t, store.DomainPreference())
	})
}

type fakeHistory struct{ calls int }

func (h *fakeHistory) ReplaceURL() { h.calls++ }

func TestStore_HistoryReplaceOnConsume(t *testing.T) {
	kv := clientsession.NewMemoryKV()
	jar := clientsession.NewMemoryCookieJar()
	history := &fakeHistory{}
	store := clientsession.NewStore(kv, jar, appOrigin, brokerOrigin,
		clientsession.WithNowTime(func() time.Time { return now }),
		clientsession.WithHistory(history))

	require.True(t, store.ConsumeFragment("token=tok&expires_at=9999999999&org_id=O"))
	require.Equal(t, 1, history.calls)

	require.False(t, store.ConsumeFragment("org_id=O"))
	require.Equal(t, 1, history.calls)
}
