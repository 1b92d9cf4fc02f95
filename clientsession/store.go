// Package clientsession is the client-side half of the session handoff: it
// reconciles a durable local record of the session against the URL fragment
// and the parent-domain fallback cookie, enforces expiry on read, and builds
// the login/logout redirect URLs.
//
// Storage is abstracted behind KV and CookieJar so the store runs unchanged
// against localStorage/document.cookie in a wasm build or against in-memory
// implementations elsewhere.
package clientsession

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/mtamaramu/authbroker/session"
)

const (
	storageKey       = "logi_auth"
	authCookieName   = "logi_auth_token"
	domainStorageKey = "logi_lw_domain"
	domainCookieName = "lw_domain"

	domainPreferenceMaxAge = 30 * 24 * 60 * 60
)

// Record is the browser-local mirror of the session token plus denormalized
// display claims.
type Record struct {
	Token     string `json:"token"`
	OrgID     string `json:"orgId"`
	ExpiresAt int64  `json:"expiresAt"`
	Username  string `json:"username,omitempty"`
	Provider  string `json:"provider,omitempty"`
	OrgSlug   string `json:"orgSlug,omitempty"`
}

// KV is the durable client store (localStorage in a browser build).
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Cookie is a cookie write. MaxAge <= 0 deletes the cookie.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
	MaxAge int
}

// CookieJar abstracts document.cookie.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(cookie Cookie)
}

// History abstracts history.replaceState, used to strip a consumed fragment
// from the visible URL without a reload.
type History interface {
	ReplaceURL()
}

// Store holds the reconciled session state for one origin.
type Store struct {
	storage      KV
	cookies      CookieJar
	history      History
	origin       string
	hostname     string
	brokerOrigin string
	now          func() time.Time
	current      *Record
}

type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = nowFunc
	}
}

// WithHistory enables fragment stripping after a successful consume.
func WithHistory(h History) StoreOption {
	return func(s *Store) {
		s.history = h
	}
}

// NewStore creates a session store for the app at origin (e.g.
// "https://app.mtamaramu.com") talking to the broker at brokerOrigin.
func NewStore(storage KV, cookies CookieJar, origin, brokerOrigin string, options ...StoreOption) *Store {
	hostname := ""
	if u, err := url.Parse(origin); err == nil {
		hostname = u.Hostname()
	}
	s := &Store{
		storage:      storage,
		cookies:      cookies,
		origin:       origin,
		hostname:     hostname,
		brokerOrigin: brokerOrigin,
		now:          time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Load reads the durable record. An expired record is purged from both stores
// and reported as no session. Records persisted before display claims were
// denormalized are backfilled from the token body.
func (s *Store) Load() *Record {
	raw, ok := s.storage.Get(storageKey)
	if !ok {
		return nil
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		s.clearSession()
		return nil
	}
	if record.ExpiresAt <= s.now().Unix() {
		s.clearSession()
		return nil
	}

	if record.Username == "" || record.Provider == "" || record.OrgSlug == "" {
		claims := session.DecodeClaims(record.Token)
		record.Username = claims.Username
		record.Provider = claims.Provider
		record.OrgSlug = claims.OrgSlug
		s.persist(&record)
	}

	s.current = &record
	return s.current
}

// ConsumeFragment parses a post-login URL fragment ("token=...&org_id=...")
// and persists the session to both stores. Display claims are decoded from
// the token on a best-effort basis; their absence never rejects the token.
// Idempotent: the same fragment always yields the same stored state.
func (s *Store) ConsumeFragment(fragment string) bool {
	if len(fragment) > 0 && fragment[0] == '#' {
		fragment = fragment[1:]
	}
	params, err := url.ParseQuery(fragment)
	if err != nil {
		return false
	}

	token := params.Get("token")
	orgID := params.Get("org_id")
	if token == "" || orgID == "" {
		return false
	}

	record := &Record{
		Token:     token,
		OrgID:     orgID,
		ExpiresAt: session.ParseExpiry(params.Get("expires_at"), s.now()),
	}
	claims := session.DecodeClaims(token)
	record.Username = claims.Username
	record.Provider = claims.Provider
	record.OrgSlug = claims.OrgSlug

	s.persist(record)
	s.current = record

	if s.history != nil {
		s.history.ReplaceURL()
	}
	return true
}

// RecoverFromCookie rebuilds the session from the parent-domain fallback
// cookie when no usable durable record exists. The token's own exp claim is
// checked before it is trusted; on success the durable store is backfilled
// and any domain-preference cookie is synced alongside.
func (s *Store) RecoverFromCookie() bool {
	token, ok := s.cookies.Get(authCookieName)
	if !ok || token == "" {
		return false
	}

	claims := session.DecodeClaims(token)
	if claims.ExpiresAt == 0 || claims.ExpiresAt <= s.now().Unix() {
		return false
	}

	record := &Record{
		Token:     token,
		OrgID:     claims.OrgID,
		ExpiresAt: claims.ExpiresAt,
		Username:  claims.Username,
		Provider:  claims.Provider,
		OrgSlug:   claims.OrgSlug,
	}
	if raw, err := json.Marshal(record); err == nil {
		s.storage.Set(storageKey, string(raw))
	}
	s.current = record

	if domain, ok := s.cookies.Get(domainCookieName); ok && domain != "" {
		if unescaped, err := url.QueryUnescape(domain); err == nil && unescaped != "" {
			s.SaveDomainPreference(unescaped)
		}
	}
	return true
}

// IsAuthenticated is strictly expires_at > now for the loaded record.
func (s *Store) IsAuthenticated() bool {
	return s.current != nil && s.current.ExpiresAt > s.now().Unix()
}

// Current returns the loaded record, or nil.
func (s *Store) Current() *Record {
	return s.current
}

// Logout clears both session stores and the domain preference, and returns
// the provider-selection URL to navigate to.
func (s *Store) Logout() string {
	s.clearSession()
	s.ClearDomainPreference()
	s.current = nil
	return s.brokerOrigin + "/login?redirect_uri=" + url.QueryEscape(s.callbackURI())
}

// LoginURL returns where to send an unauthenticated user: straight into the
// LINE WORKS OAuth leg when a domain preference is remembered, otherwise the
// generic provider-selection page.
func (s *Store) LoginURL() string {
	if domain := s.DomainPreference(); domain != "" {
		params := url.Values{}
		params.Set("address", domain)
		params.Set("redirect_uri", s.callbackURI())
		return s.brokerOrigin + "/oauth/lineworks/redirect?" + params.Encode()
	}
	return s.brokerOrigin + "/login?redirect_uri=" + url.QueryEscape(s.callbackURI())
}

// SaveDomainPreference remembers a LINE WORKS domain for one-click login on
// return visits, mirrored to both stores.
func (s *Store) SaveDomainPreference(domain string) {
	s.storage.Set(domainStorageKey, domain)
	s.cookies.Set(Cookie{
		Name:   domainCookieName,
		Value:  url.QueryEscape(domain),
		Domain: session.ParentDomain(s.hostname),
		Path:   "/",
		MaxAge: domainPreferenceMaxAge,
	})
}

// DomainPreference returns the remembered LINE WORKS domain, if any.
func (s *Store) DomainPreference() string {
	domain, _ := s.storage.Get(domainStorageKey)
	return domain
}

// ClearDomainPreference forgets the domain on explicit logout, including the
// host-only cookie variant a narrower-scoped collaborator may have written.
func (s *Store) ClearDomainPreference() {
	s.storage.Delete(domainStorageKey)
	parent := session.ParentDomain(s.hostname)
	s.cookies.Set(Cookie{Name: domainCookieName, Domain: parent, Path: "/", MaxAge: 0})
	s.cookies.Set(Cookie{Name: domainCookieName, Path: "/", MaxAge: 0})
}

// AutoLoginURL returns a shareable app URL that triggers LINE WORKS
// auto-login, or "" when no domain preference is stored.
func (s *Store) AutoLoginURL() string {
	domain := s.DomainPreference()
	if domain == "" {
		return ""
	}
	return s.origin + "/?lw=" + url.QueryEscape(domain)
}

// persist writes the record to both stores in one operation so callers never
// observe a partial write.
func (s *Store) persist(record *Record) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	s.storage.Set(storageKey, string(raw))

	maxAge := int(record.ExpiresAt - s.now().Unix())
	if maxAge < 0 {
		maxAge = 0
	}
	s.cookies.Set(Cookie{
		Name:   authCookieName,
		Value:  record.Token,
		Domain: session.ParentDomain(s.hostname),
		Path:   "/",
		MaxAge: maxAge,
	})
}

// clearSession clears both stores, covering the parent-domain cookie and the
// host-only variant a same-origin server component may have set.
func (s *Store) clearSession() {
	s.storage.Delete(storageKey)
	parent := session.ParentDomain(s.hostname)
	s.cookies.Set(Cookie{Name: authCookieName, Domain: parent, Path: "/", MaxAge: 0})
	s.cookies.Set(Cookie{Name: authCookieName, Path: "/", MaxAge: 0})
}

func (s *Store) callbackURI() string {
	return s.origin + "/?" + session.CallbackMarker + "=1"
}
