package tokenstore

import (
	errs "github.com/jrsteele09/go-auth-client/internal/errors"
)

// StoreType selects a token store driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
)

// NewRepo creates a Repo for the given driver.
// The file store requires WithFilePath, the Redis store WithRedisClient.
func NewRepo(storeType StoreType, opts ...StoreOption) (Repo, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryRepo(), nil

	case StoreTypeFile:
		if config.filePath == "" {
			return nil, errs.Wrapf(errs.ErrInvalidConfig, "file token store needs a path")
		}
		return NewFileRepo(config.filePath, config.filePassphrase), nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, errs.Wrapf(errs.ErrInvalidConfig, "redis token store needs a client")
		}
		return NewRedisRepo(config.redisClient, config.redisKeyPrefix), nil

	default:
		return nil, errs.Wrapf(errs.ErrInvalidStoreType, "%q", storeType)
	}
}
