package tokenstore

import (
	"context"
	"sync"

	errs "github.com/jrsteele09/go-auth-client/internal/errors"
)

// MemoryRepo keeps tokens in a map. Nothing survives the process.
type MemoryRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Repo = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{values: make(map[string]string)}
}

func (m *MemoryRepo) Load(ctx context.Context) (Tokens, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.values == nil {
		return Tokens{}, errs.ErrStoreClosed
	}
	return Tokens{
		AccessToken:  m.values[AccessTokenKey],
		RefreshToken: m.values[RefreshTokenKey],
	}, nil
}

func (m *MemoryRepo) Save(ctx context.Context, tokens Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		return errs.ErrStoreClosed
	}
	m.values[AccessTokenKey] = tokens.AccessToken
	m.values[RefreshTokenKey] = tokens.RefreshToken
	return nil
}

func (m *MemoryRepo) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		return errs.ErrStoreClosed
	}
	delete(m.values, AccessTokenKey)
	delete(m.values, RefreshTokenKey)
	return nil
}

func (m *MemoryRepo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = nil
	return nil
}
