package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-client/tokenstore"
)

var _ tokenstore.Repo = (*FakeRepo)(nil)

// FakeRepo is an in-memory Repo that records calls and can be told to fail.
type FakeRepo struct {
	lock   sync.Mutex
	tokens tokenstore.Tokens

	LoadErr  error
	SaveErr  error
	ClearErr error

	Loads  int
	Saves  int
	Clears int
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{}
}

// NewFakeRepoWith starts with tokens already persisted.
func NewFakeRepoWith(accessToken, refreshToken string) *FakeRepo {
	return &FakeRepo{tokens: tokenstore.Tokens{AccessToken: accessToken, RefreshToken: refreshToken}}
}

func (f *FakeRepo) Load(ctx context.Context) (tokenstore.Tokens, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Loads++
	if f.LoadErr != nil {
		return tokenstore.Tokens{}, f.LoadErr
	}
	return f.tokens, nil
}

func (f *FakeRepo) Save(ctx context.Context, tokens tokenstore.Tokens) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Saves++
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.tokens = tokens
	return nil
}

func (f *FakeRepo) Clear(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Clears++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.tokens = tokenstore.Tokens{}
	return nil
}

func (f *FakeRepo) Close() error {
	return nil
}

// Stored returns what is currently persisted.
func (f *FakeRepo) Stored() tokenstore.Tokens {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.tokens
}
