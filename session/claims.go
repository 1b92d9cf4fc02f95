// Package session implements the cross-origin handoff of a freshly minted
// session token back to the calling front-end: a URL-fragment transport plus
// a parent-domain cookie fallback for in-app browsers that drop fragments.
package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the display/routing claims decoded from a session token body.
// The broker never verifies the token signature; the backend does that when
// the token is presented as a bearer credential. Decoding here is best-effort
// only and a malformed token yields zero-value Claims, never an error.
type Claims struct {
	Subject   string
	OrgID     string
	OrgSlug   string
	Username  string
	Provider  string
	ExpiresAt int64
}

// DecodeClaims extracts claims from an unverified token body.
func DecodeClaims(token string) Claims {
	var claims Claims

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return claims
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return claims
	}

	claims.Subject = stringClaim(mapClaims, "sub")
	claims.OrgID = stringClaim(mapClaims, "org")
	claims.OrgSlug = stringClaim(mapClaims, "org_slug")
	claims.Username = stringClaim(mapClaims, "username")
	claims.Provider = stringClaim(mapClaims, "provider")
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Unix()
	}
	return claims
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// ParseExpiry normalizes an expiry reported by the backend: a unix-seconds
// numeric string of at least 10 digits, or an RFC3339 timestamp. Unparseable
// input defaults to now+86400s so a cosmetic formatting problem never aborts
// an otherwise successful login.
func ParseExpiry(value string, now time.Time) int64 {
	if len(value) >= 10 && !strings.ContainsAny(value, "-:TZ ") {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Unix()
	}
	return now.Add(24 * time.Hour).Unix()
}

// ParentDomain computes the cookie scope shared across sibling subdomains:
// the last two labels of the hostname, or the hostname itself when it has two
// labels or fewer.
func ParentDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}
