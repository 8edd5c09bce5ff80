package authapi

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-client/gateway"
	errs "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
)

// Doer sends authenticated requests. *gateway.Gateway satisfies it.
type Doer interface {
	Do(ctx context.Context, req *gateway.Request) (*gateway.Response, error)
}

// Client implements the remote operations the session service needs.
type Client struct {
	doer  Doer
	plain *plain
}

func NewClient(baseURL string, doer Doer, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[NewClient] base URL is required")
	}
	if doer == nil {
		return nil, errors.New("[NewClient] doer is required")
	}
	return &Client{doer: doer, plain: newPlain(baseURL, opts)}, nil
}

func (c *Client) Login(ctx context.Context, req oauth2.LoginRequest) (oauth2.TokenPair, error) {
	return c.issue(ctx, PathLogin, req)
}

func (c *Client) LoginGoogle(ctx context.Context, req oauth2.GoogleLoginRequest) (oauth2.TokenPair, error) {
	return c.issue(ctx, PathLoginGoogle, req)
}

// Me fetches the identity of the current bearer. A null body yields a nil user.
func (c *Client) Me(ctx context.Context) (*users.User, error) {
	resp, err := c.doer.Do(ctx, &gateway.Request{Method: http.MethodGet, Path: PathMe})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}
	var user *users.User
	if err := resp.Decode(&user); err != nil {
		return nil, errs.Wrapf(err, "identity")
	}
	return user, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, req oauth2.PasswordResetRequest) error {
	r, err := gateway.NewJSONRequest(http.MethodPost, PathRequestPasswordReset, req)
	if err != nil {
		return err
	}
	return c.plain.post(ctx, r, nil)
}

func (c *Client) ResetPassword(ctx context.Context, req oauth2.PasswordResetConfirm) error {
	r, err := gateway.NewJSONRequest(http.MethodPost, PathResetPassword, req)
	if err != nil {
		return err
	}
	return c.plain.post(ctx, r, nil)
}

func (c *Client) issue(ctx context.Context, path string, body any) (oauth2.TokenPair, error) {
	r, err := gateway.NewJSONRequest(http.MethodPost, path, body)
	if err != nil {
		return oauth2.TokenPair{}, err
	}
	var pair oauth2.TokenPair
	if err := c.plain.post(ctx, r, &pair); err != nil {
		return oauth2.TokenPair{}, err
	}
	return pair, nil
}
