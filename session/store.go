package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/rs/zerolog"
	xoauth2 "golang.org/x/oauth2"
)

// Store holds the session. All fields are written through its methods only;
// the durable repo is updated under the same write lock as memory.
type Store struct {
	mu     sync.RWMutex
	repo   tokenstore.Repo
	logger zerolog.Logger

	accessToken  string
	refreshToken string
	user         *users.User
	status       Status
}

var _ xoauth2.TokenSource = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore returns a Store in StatusPending. Nothing is read from repo until
// Service.Restore runs.
func NewStore(repo tokenstore.Repo, opts ...StoreOption) *Store {
	s := &Store{
		repo:   repo,
		logger: zerolog.Nop(),
		status: StatusPending,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Store) IsAuthenticated() bool {
	return s.Status() == StatusAuthenticated
}

// CurrentUser returns a copy of the identity, or nil.
func (s *Store) CurrentUser() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Snapshot is a consistent copy of the whole session.
type Snapshot struct {
	Status Status
	User   *users.User
	Tokens oauth2.TokenPair
}

// Snapshot reads every field under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Status: s.status,
		User:   s.user.Clone(),
		Tokens: oauth2.TokenPair{AccessToken: s.accessToken, RefreshToken: s.refreshToken},
	}
}

// Tokens returns both tokens read under one lock.
func (s *Store) Tokens() oauth2.TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return oauth2.TokenPair{AccessToken: s.accessToken, RefreshToken: s.refreshToken}
}

// Token implements oauth2.TokenSource so the session can back an
// x/oauth2 client. It never refreshes; the gateway owns refresh.
func (s *Store) Token() (*xoauth2.Token, error) {
	pair := s.Tokens()
	if pair.AccessToken == "" {
		return nil, ErrNoAccessToken
	}
	return pair.OAuth2Token(), nil
}

// SetTokens overwrites both tokens in the repo and in memory. Status is not
// changed; only an identity fetch moves the session to authenticated.
// On a storage error memory is left untouched.
func (s *Store) SetTokens(ctx context.Context, pair oauth2.TokenPair) error {
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTokenPair, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, tokenstore.Tokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.logger.Debug().Msg("session tokens replaced")
	return nil
}

// ClearAuth drops user and tokens and marks the session unauthenticated.
// It is idempotent. Memory is always cleared; a repo error is returned.
func (s *Store) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasAuthenticated := s.status == StatusAuthenticated
	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
	s.status = StatusUnauthenticated

	if wasAuthenticated {
		s.logger.Info().Msg("session cleared")
	}
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear persisted tokens: %w", err)
	}
	return nil
}

// hydrate copies persisted tokens into memory and reports whether an access
// token was found.
func (s *Store) hydrate(ctx context.Context) (bool, error) {
	tokens, err := s.repo.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load persisted tokens: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = tokens.AccessToken
	s.refreshToken = tokens.RefreshToken
	return tokens.AccessToken != "", nil
}

// setUser records the identity and marks the session authenticated. It fails
// if the access token disappeared while the identity was being fetched.
func (s *Store) setUser(user *users.User) error {
	if user == nil {
		return ErrEmptyIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken == "" {
		return ErrNoAccessToken
	}
	s.user = user.Clone()
	s.status = StatusAuthenticated
	return nil
}

// dropUser forgets the identity but keeps the tokens: the partial login case.
func (s *Store) dropUser() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	if s.status == StatusAuthenticated {
		s.status = StatusUnauthenticated
	}
}
