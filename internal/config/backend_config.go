package config

import "time"

type BackendConfig interface {
	GetBackendBaseURL() string
	GetBackendTimeout() time.Duration
}

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBackendBaseURL returns the base URL of the identity backend RPC surface.
func (Backend) GetBackendBaseURL() string {
	return GetEnv("IDENTITY_BACKEND_URL", "http://localhost:9090")
}

func (Backend) GetBackendTimeout() time.Duration {
	return 15 * time.Second
}
