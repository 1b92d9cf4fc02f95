// Package security implements redirect_uri validation and the HMAC-signed
// OAuth state parameter that carries flow context through third-party
// redirects without server-side storage.
package security

import (
	"net/url"
	"strings"
)

// IsAllowedRedirectURI reports whether the candidate redirect URI's origin
// (scheme + host + port) exactly matches one entry of the comma-separated
// allowlist. No wildcard or suffix matching: a subdomain or a lookalike host
// ("good.com.evil.com") never matches. Any parse failure fails closed.
func IsAllowedRedirectURI(redirectURI, allowedOrigins string) bool {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return false
	}
	origin := u.Scheme + "://" + u.Host

	for _, allowed := range strings.Split(allowedOrigins, ",") {
		if origin == strings.TrimSpace(allowed) {
			return true
		}
	}
	return false
}
