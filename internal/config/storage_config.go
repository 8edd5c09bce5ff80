package config

import (
	"os"
	"path/filepath"
)

type StorageConfig interface {
	GetTokenStoreType() string
	GetTokenFile() string
	GetTokenFilePassphrase() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetTokenStoreType is one of "memory", "file" or "redis".
func (Storage) GetTokenStoreType() string {
	return GetEnv("TOKEN_STORE", "file")
}

func (Storage) GetTokenFile() string {
	if f := GetEnv("TOKEN_FILE", ""); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".go-auth-client", "tokens.json")
}

// GetTokenFilePassphrase seals the token file at rest when non-empty.
func (Storage) GetTokenFilePassphrase() string {
	return GetEnv("TOKEN_FILE_PASSPHRASE", "")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "127.0.0.1:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Storage) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "auth-client:")
}
