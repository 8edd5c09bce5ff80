package session_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/tokenstore/repofake"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu sync.Mutex

	loginPair oauth2.TokenPair
	loginErr  error
	meUser    *users.User
	meErr     error
	resetErr  error

	logins       []oauth2.LoginRequest
	googleLogins []oauth2.GoogleLoginRequest
	meCalls      int
	resets       []oauth2.PasswordResetRequest
	confirms     []oauth2.PasswordResetConfirm
}

func (f *fakeAPI) Login(_ context.Context, req oauth2.LoginRequest) (oauth2.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, req)
	return f.loginPair, f.loginErr
}

func (f *fakeAPI) LoginGoogle(_ context.Context, req oauth2.GoogleLoginRequest) (oauth2.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.googleLogins = append(f.googleLogins, req)
	return f.loginPair, f.loginErr
}

func (f *fakeAPI) Me(context.Context) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.meUser, f.meErr
}

func (f *fakeAPI) RequestPasswordReset(_ context.Context, req oauth2.PasswordResetRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, req)
	return f.resetErr
}

func (f *fakeAPI) ResetPassword(_ context.Context, req oauth2.PasswordResetConfirm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = append(f.confirms, req)
	return f.resetErr
}

// statusErr stands in for a non-2xx response.
type statusErr struct {
	status int
	body   string
}

func (e statusErr) Error() string        { return "status error" }
func (e statusErr) HTTPStatus() int      { return e.status }
func (e statusErr) ResponseBody() []byte { return []byte(e.body) }

var alice = &users.User{ID: "u1", Username: "alice", Email: "alice@example.com"}

func newService(t *testing.T, repo *repofake.FakeRepo, api *fakeAPI, opts ...session.ServiceOption) *session.Service {
	t.Helper()
	svc, err := session.NewService(session.NewStore(repo), api, opts...)
	require.NoError(t, err)
	return svc
}

// requireConsistent checks that authenticated always implies a user and an
// access token.
func requireConsistent(t *testing.T, store *session.Store) {
	t.Helper()
	require.True(t, consistent(store.Snapshot()))
}

func consistent(snap session.Snapshot) bool {
	if snap.Status != session.StatusAuthenticated {
		return true
	}
	return snap.User != nil && snap.Tokens.AccessToken != ""
}

// restored returns a service that has left pending with no session.
func restored(t *testing.T, repo *repofake.FakeRepo, api *fakeAPI, opts ...session.ServiceOption) *session.Service {
	t.Helper()
	svc := newService(t, repo, api, opts...)
	require.NoError(t, svc.Restore(context.Background()))
	require.Equal(t, session.StatusUnauthenticated, svc.Store().Status())
	return svc
}

func TestNewService(t *testing.T) {
	_, err := session.NewService(nil, &fakeAPI{})
	require.Error(t, err)
	_, err = session.NewService(session.NewStore(repofake.NewFakeRepo()), nil)
	require.Error(t, err)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("no persisted token makes no API call", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newService(t, repofake.NewFakeRepo(), api)

		require.NoError(t, svc.Restore(ctx))
		require.Equal(t, session.StatusUnauthenticated, svc.Store().Status())
		require.Zero(t, api.meCalls)
	})

	t.Run("valid token authenticates", func(t *testing.T) {
		api := &fakeAPI{meUser: alice}
		repo := repofake.NewFakeRepoWith("A", "R")
		svc := newService(t, repo, api)

		require.NoError(t, svc.Restore(ctx))
		store := svc.Store()
		require.Equal(t, session.StatusAuthenticated, store.Status())
		require.Equal(t, "u1", store.CurrentUser().ID)
		require.Equal(t, "A", store.AccessToken())
		require.Equal(t, "R", store.RefreshToken())
		require.Equal(t, 1, api.meCalls)
		requireConsistent(t, store)
	})

	t.Run("rejected token clears everything", func(t *testing.T) {
		api := &fakeAPI{meErr: statusErr{status: 401}}
		repo := repofake.NewFakeRepoWith("A", "R")
		svc := newService(t, repo, api)

		err := svc.Restore(ctx)
		require.ErrorIs(t, err, session.ErrRestoreFailed)
		store := svc.Store()
		require.Equal(t, session.StatusUnauthenticated, store.Status())
		require.Empty(t, store.AccessToken())
		require.Empty(t, store.RefreshToken())
		require.True(t, repo.Stored().IsZero())
	})

	t.Run("empty identity counts as failure", func(t *testing.T) {
		api := &fakeAPI{}
		repo := repofake.NewFakeRepoWith("A", "R")
		svc := newService(t, repo, api)

		err := svc.Restore(ctx)
		require.ErrorIs(t, err, session.ErrEmptyIdentity)
		require.Equal(t, session.StatusUnauthenticated, svc.Store().Status())
	})

	t.Run("unreadable storage", func(t *testing.T) {
		repo := repofake.NewFakeRepo()
		repo.LoadErr = errors.New("corrupt")
		svc := newService(t, repo, &fakeAPI{})

		require.ErrorIs(t, svc.Restore(ctx), session.ErrRestoreFailed)
		require.Equal(t, session.StatusUnauthenticated, svc.Store().Status())
	})

	t.Run("runs once", func(t *testing.T) {
		api := &fakeAPI{meUser: alice}
		svc := newService(t, repofake.NewFakeRepoWith("A", "R"), api)

		require.NoError(t, svc.Restore(ctx))
		require.ErrorIs(t, svc.Restore(ctx), session.ErrAlreadyRestored)
		require.Equal(t, 1, api.meCalls)
	})

	t.Run("cancelled context still leaves pending", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		api := &fakeAPI{meErr: context.Canceled}
		repo := repofake.NewFakeRepoWith("A", "R")
		svc := newService(t, repo, api, session.WithRestoreTimeout(time.Second))

		require.Error(t, svc.Restore(cctx))
		require.Equal(t, session.StatusUnauthenticated, svc.Store().Status())
		require.True(t, repo.Stored().IsZero())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	creds := oauth2.LoginRequest{Username: "alice@example.com", Password: "Password123"}
	issued := oauth2.TokenPair{AccessToken: "A", RefreshToken: "R", TokenType: "bearer"}

	t.Run("rejected while pending", func(t *testing.T) {
		api := &fakeAPI{loginPair: issued, meUser: alice}
		svc := newService(t, repofake.NewFakeRepo(), api)

		require.ErrorIs(t, svc.Login(ctx, creds), session.ErrRestorePending)
		require.Empty(t, api.logins)
	})

	t.Run("success", func(t *testing.T) {
		api := &fakeAPI{loginPair: issued, meUser: alice}
		repo := repofake.NewFakeRepo()
		svc := restored(t, repo, api)

		require.NoError(t, svc.Login(ctx, creds))
		store := svc.Store()
		require.Equal(t, session.StatusAuthenticated, store.Status())
		require.Equal(t, "alice", store.CurrentUser().Username)
		require.Equal(t, "A", store.AccessToken())
		require.Equal(t, "A", repo.Stored().AccessToken)
		require.Equal(t, "R", repo.Stored().RefreshToken)
		require.Equal(t, []oauth2.LoginRequest{creds}, api.logins)
		requireConsistent(t, store)
	})

	t.Run("re-login while authenticated replaces the session", func(t *testing.T) {
		api := &fakeAPI{loginPair: issued, meUser: alice}
		svc := restored(t, repofake.NewFakeRepo(), api)
		require.NoError(t, svc.Login(ctx, creds))

		api.loginPair = oauth2.TokenPair{AccessToken: "A2", RefreshToken: "R2"}
		api.meUser = &users.User{ID: "u2", Username: "bob"}
		require.NoError(t, svc.Login(ctx, oauth2.LoginRequest{Username: "bob@example.com", Password: "Password123"}))
		require.Equal(t, "u2", svc.Store().CurrentUser().ID)
		require.Equal(t, "A2", svc.Store().AccessToken())
	})

	t.Run("failure leaves state unchanged", func(t *testing.T) {
		api := &fakeAPI{loginErr: statusErr{status: 401, body: `{"detail":"Incorrect username or password"}`}}
		repo := repofake.NewFakeRepo()
		svc := restored(t, repo, api)

		err := svc.Login(ctx, creds)
		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Incorrect username or password", apiErr.Message)
		require.Equal(t, 401, apiErr.StatusCode)
		require.Equal(t, session.StatusUnauthenticated, svc.Store().Status())
		require.Empty(t, svc.Store().AccessToken())
		require.Zero(t, repo.Saves)
		require.Zero(t, api.meCalls)
	})

	t.Run("transport failure gets the generic message", func(t *testing.T) {
		api := &fakeAPI{loginErr: errors.New("connection refused")}
		svc := restored(t, repofake.NewFakeRepo(), api)

		var apiErr *apierror.Error
		require.ErrorAs(t, svc.Login(ctx, creds), &apiErr)
		require.Equal(t, apierror.CodeGeneric, apiErr.Code)
		require.Equal(t, apierror.GenericMessage, apiErr.Message)
	})

	t.Run("identity failure is a partial login", func(t *testing.T) {
		api := &fakeAPI{loginPair: issued, meErr: statusErr{status: 500, body: `{"detail":"boom"}`}}
		repo := repofake.NewFakeRepo()
		svc := restored(t, repo, api)

		err := svc.Login(ctx, creds)
		require.ErrorIs(t, err, session.ErrPartialLogin)
		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "boom", apiErr.Message)

		store := svc.Store()
		require.Equal(t, session.StatusUnauthenticated, store.Status())
		require.Nil(t, store.CurrentUser())
		require.Equal(t, "A", store.AccessToken())
		require.Equal(t, "A", repo.Stored().AccessToken)
		requireConsistent(t, store)
	})

	t.Run("missing fields are rejected before any request", func(t *testing.T) {
		api := &fakeAPI{}
		svc := restored(t, repofake.NewFakeRepo(), api)

		var apiErr *apierror.Error
		require.ErrorAs(t, svc.Login(ctx, oauth2.LoginRequest{Password: "x"}), &apiErr)
		require.Equal(t, apierror.CodeValidation, apiErr.Code)
		require.ErrorAs(t, svc.Login(ctx, oauth2.LoginRequest{Username: "x"}), &apiErr)
		require.Empty(t, api.logins)
	})

	t.Run("invalid issued pair is not stored", func(t *testing.T) {
		api := &fakeAPI{loginPair: oauth2.TokenPair{AccessToken: "A"}, meUser: alice}
		repo := repofake.NewFakeRepo()
		svc := restored(t, repo, api)

		require.Error(t, svc.Login(ctx, creds))
		require.Zero(t, repo.Saves)
		require.Equal(t, session.StatusUnauthenticated, svc.Store().Status())
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{loginPair: oauth2.TokenPair{AccessToken: "A", RefreshToken: "R"}, meUser: alice}
	repo := repofake.NewFakeRepo()
	svc := restored(t, repo, api)
	require.NoError(t, svc.Login(ctx, oauth2.LoginRequest{Username: "alice@example.com", Password: "Password123"}))

	svc.Logout(ctx)
	svc.Logout(ctx)

	store := svc.Store()
	require.Equal(t, session.StatusUnauthenticated, store.Status())
	require.Nil(t, store.CurrentUser())
	require.Empty(t, store.AccessToken())
	require.Empty(t, store.RefreshToken())
	require.True(t, repo.Stored().IsZero())

	repo.ClearErr = errors.New("disk gone")
	svc.Logout(ctx)
	require.Equal(t, session.StatusUnauthenticated, store.Status())
}

func TestConcurrentReadsDuringLogin(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{loginPair: oauth2.TokenPair{AccessToken: "A", RefreshToken: "R"}, meUser: alice}
	svc := restored(t, repofake.NewFakeRepo(), api)

	var wg sync.WaitGroup
	var violations atomic.Int32
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					if !consistent(svc.Store().Snapshot()) {
						violations.Add(1)
					}
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, svc.Login(ctx, oauth2.LoginRequest{Username: "alice@example.com", Password: "Password123"}))
		svc.Logout(ctx)
	}
	close(stop)
	wg.Wait()
	require.Zero(t, violations.Load())
}

const (
	testIssuer   = "https://accounts.example.com"
	testClientID = "client-123"
)

func signIDToken(t *testing.T, key *rsa.PrivateKey, audience string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   audience,
		"sub":   "google-sub",
		"email": "alice@example.com",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestLoginGoogle(t *testing.T) {
	ctx := context.Background()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verifier := oidc.NewVerifier(testIssuer, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}, &oidc.Config{ClientID: testClientID})

	t.Run("verified token logs in", func(t *testing.T) {
		api := &fakeAPI{loginPair: oauth2.TokenPair{AccessToken: "GA", RefreshToken: "GR"}, meUser: alice}
		svc := restored(t, repofake.NewFakeRepo(), api, session.WithIDTokenVerifier(verifier))

		raw := signIDToken(t, key, testClientID)
		require.NoError(t, svc.LoginGoogle(ctx, raw))
		require.Equal(t, []oauth2.GoogleLoginRequest{{Token: raw}}, api.googleLogins)
		require.Equal(t, session.StatusAuthenticated, svc.Store().Status())
	})

	t.Run("wrong audience is rejected locally", func(t *testing.T) {
		api := &fakeAPI{loginPair: oauth2.TokenPair{AccessToken: "GA", RefreshToken: "GR"}, meUser: alice}
		svc := restored(t, repofake.NewFakeRepo(), api, session.WithIDTokenVerifier(verifier))

		err := svc.LoginGoogle(ctx, signIDToken(t, key, "someone-else"))
		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, session.CodeInvalidIDToken, apiErr.Code)
		require.Empty(t, api.googleLogins)
		require.Equal(t, session.StatusUnauthenticated, svc.Store().Status())
	})

	t.Run("without verifier the token goes straight to the API", func(t *testing.T) {
		api := &fakeAPI{loginPair: oauth2.TokenPair{AccessToken: "GA", RefreshToken: "GR"}, meUser: alice}
		svc := restored(t, repofake.NewFakeRepo(), api)

		require.NoError(t, svc.LoginGoogle(ctx, "opaque"))
		require.Len(t, api.googleLogins, 1)
	})

	t.Run("rejected while pending", func(t *testing.T) {
		svc := newService(t, repofake.NewFakeRepo(), &fakeAPI{})
		require.ErrorIs(t, svc.LoginGoogle(ctx, "x"), session.ErrRestorePending)
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("request", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newService(t, repofake.NewFakeRepo(), api)

		var apiErr *apierror.Error
		require.ErrorAs(t, svc.RequestPasswordReset(ctx, "not-an-email"), &apiErr)
		require.Equal(t, apierror.CodeValidation, apiErr.Code)
		require.Empty(t, api.resets)

		require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
		require.Equal(t, []oauth2.PasswordResetRequest{{Email: "alice@example.com"}}, api.resets)
		require.Equal(t, session.StatusPending, svc.Store().Status())
	})

	t.Run("confirm", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newService(t, repofake.NewFakeRepo(), api)

		require.Error(t, svc.ResetPassword(ctx, "", "Password123"))
		require.Error(t, svc.ResetPassword(ctx, "tok", "short"))
		require.Error(t, svc.ResetPassword(ctx, "tok", "onlyletters"))
		require.Empty(t, api.confirms)

		require.NoError(t, svc.ResetPassword(ctx, "tok", "Password123"))
		require.Equal(t, []oauth2.PasswordResetConfirm{{Token: "tok", NewPassword: "Password123"}}, api.confirms)

		api.resetErr = statusErr{status: 400, body: `{"detail":"Invalid or expired token"}`}
		var apiErr *apierror.Error
		require.ErrorAs(t, svc.ResetPassword(ctx, "tok", "Password123"), &apiErr)
		require.Equal(t, "Invalid or expired token", apiErr.Message)
	})
}
