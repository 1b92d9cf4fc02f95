package config

type Config interface {
	EnvConfig
	SecurityConfig
	ProviderConfig
	BackendConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBrokerOrigin() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Security
	Providers
	Backend
}

func New() Config {
	return mainConfig{}
}
