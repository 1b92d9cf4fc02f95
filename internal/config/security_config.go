package config

type SecurityConfig interface {
	GetAllowedRedirectOrigins() string
	GetStateSecret() string
	GetAuthCookieName() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetAllowedRedirectOrigins returns the comma-separated list of front-end
// origins that may receive a post-login redirect. Exact origin matches only.
func (Security) GetAllowedRedirectOrigins() string {
	return GetEnv("ALLOWED_REDIRECT_ORIGINS", "")
}

// GetStateSecret returns the HMAC key for the signed OAuth state parameter.
func (Security) GetStateSecret() string {
	return GetEnv("OAUTH_STATE_SECRET", "")
}

// GetAuthCookieName returns the name of the parent-domain session cookie set
// as the fragment-loss fallback transport.
func (Security) GetAuthCookieName() string {
	return GetEnv("AUTH_COOKIE_NAME", "logi_auth_token")
}
