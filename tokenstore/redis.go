package tokenstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepo stores the two keys under a prefix so several clients can share
// one Redis. Keys carry no TTL.
type RedisRepo struct {
	client redis.UniversalClient
	prefix string
}

var _ Repo = (*RedisRepo)(nil)

func NewRedisRepo(client redis.UniversalClient, prefix string) *RedisRepo {
	return &RedisRepo{client: client, prefix: prefix}
}

// Load reads both keys with one MGET.
func (r *RedisRepo) Load(ctx context.Context) (Tokens, error) {
	vals, err := r.client.MGet(ctx, r.key(AccessTokenKey), r.key(RefreshTokenKey)).Result()
	if err != nil {
		return Tokens{}, fmt.Errorf("redis load tokens: %w", err)
	}

	var t Tokens
	if len(vals) == 2 {
		t.AccessToken, _ = vals[0].(string)
		t.RefreshToken, _ = vals[1].(string)
	}
	return t, nil
}

// Save writes both keys inside MULTI/EXEC.
func (r *RedisRepo) Save(ctx context.Context, tokens Tokens) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(AccessTokenKey), tokens.AccessToken, 0)
		pipe.Set(ctx, r.key(RefreshTokenKey), tokens.RefreshToken, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save tokens: %w", err)
	}
	return nil
}

func (r *RedisRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(AccessTokenKey), r.key(RefreshTokenKey)).Err(); err != nil {
		return fmt.Errorf("redis clear tokens: %w", err)
	}
	return nil
}

func (r *RedisRepo) Close() error {
	return r.client.Close()
}

func (r *RedisRepo) key(name string) string {
	return r.prefix + name
}
