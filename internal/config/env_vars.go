package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	mongoURIVar      = "MONGO_URI"
	mongoDatabaseVar = "MONGO_DATABASE"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetMongoURI() string
	GetMongoDatabase() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "3030")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Chobi")
}

func (EnvVars) GetMongoURI() string {
	return GetEnv(mongoURIVar, "mongodb://localhost:27017")
}

func (EnvVars) GetMongoDatabase() string {
	return GetEnv(mongoDatabaseVar, "chobi")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
