package config

import (
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	IsProduction() bool
}

type mainConfig struct {
	EnvVars
	API
	Storage
	Session
}

// New returns the environment backed configuration. A .env file in the
// working directory is loaded first when present; variables already set in
// the process environment win.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
