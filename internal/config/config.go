package config

type Config interface {
	EnvConfig
	AuthConfig
	CorsConfig
}

type mainConfig struct {
	EnvVars
	Auth
	Cors
}

func New() Config {
	return mainConfig{}
}
