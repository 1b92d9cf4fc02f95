package session

import (
	"net/http"
	"net/url"
	"time"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/config"
	"github.com/mtamaramu/authbroker/internal/errors"
)

// CallbackMarker is appended to the final redirect target so the receiving
// app's server middleware does not bounce the request back into a login loop
// before the client has consumed the fragment.
const CallbackMarker = "lw_callback"

// Handoff turns an exchanged session into the two browser transports: a
// fragment-bearing redirect URL and a parent-domain fallback cookie. Either
// artifact alone is sufficient for the receiving page to recover the session.
type Handoff struct {
	cookieName string
	now        func() time.Time
}

type HandoffOption func(*Handoff)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) HandoffOption {
	return func(h *Handoff) {
		h.now = nowFunc
	}
}

func NewHandoff(cfg config.SecurityConfig, options ...HandoffOption) *Handoff {
	h := &Handoff{
		cookieName: cfg.GetAuthCookieName(),
		now:        time.Now,
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

// Fragment encodes the session token, its expiry, and the organization id
// (decoded best-effort from the token body) as the handoff fragment.
func (h *Handoff) Fragment(result *identity.LoginResult) string {
	values := url.Values{}
	values.Set("token", result.Token)
	values.Set("expires_at", result.ExpiresAt)
	if claims := DecodeClaims(result.Token); claims.OrgID != "" {
		values.Set("org_id", claims.OrgID)
	}
	return values.Encode()
}

// Destination builds the final redirect URL: the validated redirect target
// with the callback marker query param and the session fragment. The token
// travels only in the fragment, which browsers never send to servers.
func (h *Handoff) Destination(redirectURI string, result *identity.LoginResult) (string, error) {
	target, err := url.Parse(redirectURI)
	if err != nil {
		return "", errors.Wrapf(err, "[Handoff.Destination] parse redirect_uri")
	}

	query := target.Query()
	if !query.Has(CallbackMarker) {
		query.Set(CallbackMarker, "1")
		target.RawQuery = query.Encode()
	}
	target.Fragment = ""

	return target.String() + "#" + h.Fragment(result), nil
}

// JoinDestination builds the membership-request landing URL for logins that
// carried a join-organization marker, with the same session fragment.
func (h *Handoff) JoinDestination(brokerOrigin, joinOrg string, result *identity.LoginResult) string {
	return brokerOrigin + "/join/" + url.PathEscape(joinOrg) + "/done#" + h.Fragment(result)
}

// Cookie returns the parent-domain fallback cookie for the destination host.
// Max-Age tracks the token's remaining lifetime so a stale cookie can never
// outlive the session it carries.
func (h *Handoff) Cookie(redirectURI string, result *identity.LoginResult) *http.Cookie {
	host := ""
	if target, err := url.Parse(redirectURI); err == nil {
		host = target.Hostname()
	}

	expiresAt := ParseExpiry(result.ExpiresAt, h.now())
	maxAge := int(expiresAt - h.now().Unix())
	if maxAge < 0 {
		maxAge = 0
	}

	return &http.Cookie{
		Name:     h.cookieName,
		Value:    result.Token,
		Domain:   ParentDomain(host),
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
