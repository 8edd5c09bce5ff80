package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/jrsteele09/go-auth-client/validation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// API is the remote surface the session lifecycle depends on.
type API interface {
	Login(ctx context.Context, req oauth2.LoginRequest) (oauth2.TokenPair, error)
	LoginGoogle(ctx context.Context, req oauth2.GoogleLoginRequest) (oauth2.TokenPair, error)
	Me(ctx context.Context) (*users.User, error)
	RequestPasswordReset(ctx context.Context, req oauth2.PasswordResetRequest) error
	ResetPassword(ctx context.Context, req oauth2.PasswordResetConfirm) error
}

// IDTokenVerifier checks a Google ID token locally. *oidc.IDTokenVerifier
// satisfies it.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Service runs the login, logout and restore transitions on a Store.
type Service struct {
	store          *Store
	api            API
	verifier       IDTokenVerifier
	logger         zerolog.Logger
	restoreTimeout time.Duration
	restoreStarted atomic.Bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRestoreTimeout bounds Restore so the session cannot stay pending
// forever. Zero disables the bound.
func WithRestoreTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.restoreTimeout = d
	}
}

// WithIDTokenVerifier verifies Google ID tokens before they are sent.
func WithIDTokenVerifier(v IDTokenVerifier) ServiceOption {
	return func(s *Service) {
		s.verifier = v
	}
}

func NewService(store *Store, api API, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[NewService] store is required")
	}
	if api == nil {
		return nil, errors.New("[NewService] api is required")
	}

	s := &Service{
		store:  store,
		api:    api,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Store returns the state the service drives.
func (s *Service) Store() *Store {
	return s.store
}

// Restore rehydrates persisted tokens and validates them against the
// identity endpoint. It runs once per Store; the session always leaves
// pending, and the returned error only explains why it ended unauthenticated.
func (s *Service) Restore(ctx context.Context) error {
	if !s.restoreStarted.CompareAndSwap(false, true) {
		return ErrAlreadyRestored
	}

	if s.restoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.restoreTimeout)
		defer cancel()
	}

	hasToken, err := s.store.hydrate(ctx)
	if err != nil {
		s.clear(ctx)
		s.logger.Warn().Err(err).Msg("session restore could not read persisted tokens")
		return fmt.Errorf("%w: %w", ErrRestoreFailed, err)
	}
	if !hasToken {
		s.clear(ctx)
		s.logger.Debug().Msg("no persisted session")
		return nil
	}

	user, err := s.api.Me(ctx)
	if err == nil {
		err = s.store.setUser(user)
	}
	if err != nil {
		s.clear(ctx)
		s.logger.Info().Err(err).Msg("persisted session rejected")
		return fmt.Errorf("%w: %w", ErrRestoreFailed, err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("session restored")
	return nil
}

// Login exchanges username and password for a token pair and loads the
// identity. Failures before tokens are issued leave the session untouched
// and return *apierror.Error.
func (s *Service) Login(ctx context.Context, req oauth2.LoginRequest) error {
	if s.store.Status() == StatusPending {
		return ErrRestorePending
	}
	if err := validation.Required(req.Username); err != nil {
		return apierror.Validation("username", err)
	}
	if err := validation.Required(req.Password); err != nil {
		return apierror.Validation("password", err)
	}

	pair, err := s.api.Login(ctx, req)
	if err != nil {
		s.logger.Info().Err(err).Msg("login rejected")
		return apierror.Normalize(err)
	}
	return s.establish(ctx, pair, "password")
}

// LoginGoogle exchanges a Google ID token for a token pair. With a verifier
// configured the ID token is checked locally first.
func (s *Service) LoginGoogle(ctx context.Context, idToken string) error {
	if s.store.Status() == StatusPending {
		return ErrRestorePending
	}
	if err := validation.Required(idToken); err != nil {
		return apierror.Validation("token", err)
	}

	if s.verifier != nil {
		verified, err := s.verifier.Verify(ctx, idToken)
		if err != nil {
			s.logger.Info().Err(err).Msg("google id token rejected locally")
			e := apierror.Generic(err)
			e.Code = CodeInvalidIDToken
			e.Message = "Google sign-in could not be verified."
			return e
		}
		var claims struct {
			Email string `json:"email"`
		}
		if err := verified.Claims(&claims); err == nil {
			s.logger.Debug().Str("email", claims.Email).Msg("google id token verified")
		}
	}

	pair, err := s.api.LoginGoogle(ctx, oauth2.GoogleLoginRequest{Token: idToken})
	if err != nil {
		s.logger.Info().Err(err).Msg("google login rejected")
		return apierror.Normalize(err)
	}
	return s.establish(ctx, pair, "google")
}

// Logout clears the session and the persisted tokens. It never fails; a
// storage error is only logged.
func (s *Service) Logout(ctx context.Context) {
	s.clear(ctx)
	s.logger.Info().Msg("logged out")
}

// RequestPasswordReset asks the server to mail a reset link. Session state
// is not touched.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.Field(email, validation.Required, validation.Email); err != nil {
		return apierror.Validation("email", err)
	}
	if err := s.api.RequestPasswordReset(ctx, oauth2.PasswordResetRequest{Email: email}); err != nil {
		return apierror.Normalize(err)
	}
	return nil
}

// ResetPassword completes a reset with the token from the reset link.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.Required(token); err != nil {
		return apierror.Validation("token", err)
	}
	if err := validation.Field(newPassword, validation.Required, validation.Password); err != nil {
		return apierror.Validation("password", err)
	}
	if err := s.api.ResetPassword(ctx, oauth2.PasswordResetConfirm{Token: token, NewPassword: newPassword}); err != nil {
		return apierror.Normalize(err)
	}
	return nil
}

// establish persists a freshly issued pair and loads the identity.
func (s *Service) establish(ctx context.Context, pair oauth2.TokenPair, method string) error {
	if err := s.store.SetTokens(ctx, pair); err != nil {
		s.logger.Error().Err(err).Str("method", method).Msg("could not store issued tokens")
		return apierror.Normalize(err)
	}

	user, err := s.api.Me(ctx)
	if err == nil {
		err = s.store.setUser(user)
	}
	if err != nil {
		s.store.dropUser()
		s.logger.Warn().Err(err).Str("method", method).Msg("tokens issued but identity fetch failed")
		return fmt.Errorf("%w: %w", ErrPartialLogin, apierror.Normalize(err))
	}

	s.logger.Info().Str("user_id", user.ID).Str("method", method).Msg("logged in")
	return nil
}

// clear wipes the session even when ctx is already done.
func (s *Service) clear(ctx context.Context) {
	if err := s.store.ClearAuth(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn().Err(err).Msg("could not clear persisted tokens")
	}
}
