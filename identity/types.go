package identity

// LoginResult is the outcome of any backend login procedure: an opaque
// session token plus its expiry as the backend reported it (unix seconds or
// RFC3339; the broker never normalizes it, the handoff layer does).
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// SwitchOrgResult is a LoginResult re-minted for a different organization.
type SwitchOrgResult struct {
	Token          string `json:"token"`
	ExpiresAt      string `json:"expiresAt"`
	OrganizationID string `json:"organizationId"`
}

// SsoLoginRequest carries the provider-specific exchange inputs. Exactly one
// of Code (authorization-code leg) or AccessToken (WOFF in-app leg) is set.
type SsoLoginRequest struct {
	Provider      string `json:"provider"`
	ExternalOrgID string `json:"externalOrgId"`
	Code          string `json:"code"`
	RedirectURI   string `json:"redirectUri"`
	AccessToken   string `json:"accessToken,omitempty"`
}

// SsoProviderConfig is the per-organization provider lookup result.
type SsoProviderConfig struct {
	Available bool   `json:"available"`
	ClientID  string `json:"clientId"`
	WoffID    string `json:"woffId"`
}

// BotCredentials are the long-lived service-account credentials for the bot
// platform, decrypted by the backend per request. Never cached by the broker.
type BotCredentials struct {
	ClientID       string `json:"clientId"`
	ClientSecret   string `json:"clientSecret"`
	ServiceAccount string `json:"serviceAccount"`
	PrivateKey     string `json:"privateKey"`
	BotID          string `json:"botId"`
}

// SsoConfig is an SSO configuration entry as listed to admins. The client
// secret itself is never returned, only its presence.
type SsoConfig struct {
	Provider        string `json:"provider"`
	ClientID        string `json:"clientId"`
	HasClientSecret bool   `json:"hasClientSecret"`
	ExternalOrgID   string `json:"externalOrgId"`
	Enabled         bool   `json:"enabled"`
	WoffID          string `json:"woffId"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// SsoConfigUpsert creates or updates an SSO configuration.
type SsoConfigUpsert struct {
	Provider      string `json:"provider"`
	ClientID      string `json:"clientId"`
	ClientSecret  string `json:"clientSecret,omitempty"`
	ExternalOrgID string `json:"externalOrgId"`
	Enabled       bool   `json:"enabled"`
	WoffID        string `json:"woffId,omitempty"`
}
