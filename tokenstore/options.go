package tokenstore

import (
	"github.com/redis/go-redis/v9"
)

// StoreOption is a functional option for configuring a token store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	filePath       string
	filePassphrase string
	redisClient    redis.UniversalClient
	redisKeyPrefix string
}

// WithFilePath sets the token file used by the file store.
func WithFilePath(path string) StoreOption {
	return func(c *storeConfig) {
		c.filePath = path
	}
}

// WithFilePassphrase seals the token file at rest.
func WithFilePassphrase(passphrase string) StoreOption {
	return func(c *storeConfig) {
		c.filePassphrase = passphrase
	}
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client redis.UniversalClient) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisKeyPrefix namespaces the two token keys.
func WithRedisKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.redisKeyPrefix = prefix
	}
}
