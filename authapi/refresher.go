package authapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-auth-client/gateway"
	errs "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/pkg/errors"
)

// Refresher calls POST /auth/refresh?token=<refresh token>.
type Refresher struct {
	plain *plain
}

var _ gateway.Refresher = (*Refresher)(nil)

func NewRefresher(baseURL string, opts ...Option) (*Refresher, error) {
	if baseURL == "" {
		return nil, errors.New("[NewRefresher] base URL is required")
	}
	return &Refresher{plain: newPlain(baseURL, opts)}, nil
}

func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (oauth2.TokenPair, error) {
	if refreshToken == "" {
		return oauth2.TokenPair{}, errs.ErrNoRefreshToken
	}

	req := &gateway.Request{
		Method: http.MethodPost,
		Path:   PathRefresh,
		Query:  url.Values{"token": {refreshToken}},
	}
	var pair oauth2.TokenPair
	if err := r.plain.post(ctx, req, &pair); err != nil {
		return oauth2.TokenPair{}, err
	}
	if err := pair.Validate(); err != nil {
		return oauth2.TokenPair{}, errs.Wrapf(err, "refresh response")
	}
	return pair, nil
}
