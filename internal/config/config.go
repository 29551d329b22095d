package config

type Config interface {
	EnvConfig
	AcsConfig
	SigningConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type AcsConfig interface {
	GetBaseURL() string
	GetDataFolder() string
	GetFlowTablePath() string
}

type SigningConfig interface {
	GetSigningKeyPath() string
	GetSigningCertPath() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
