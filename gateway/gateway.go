// Package gateway sends API requests with the session's bearer token and
// recovers from an expired access token with one refresh-and-retry.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// RequestIDHeader is shared by an original request and its retry.
const RequestIDHeader = "X-Request-ID"

const maxResponseBytes = 10 << 20

// Credentials is the view of the session store the gateway needs.
type Credentials interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(ctx context.Context, pair oauth2.TokenPair) error
	ClearAuth(ctx context.Context) error
}

// Refresher exchanges a refresh token for a new pair. It must not go back
// through the gateway.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (oauth2.TokenPair, error)
}

// Gateway is safe for concurrent use.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	refresher  Refresher
	timeout    time.Duration
	coalesce   bool
	flight     singleflight.Group
	logger     zerolog.Logger
	metrics    *metrics.Collector
	newID      func() string
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

// WithTimeout bounds each attempt. Zero leaves attempts bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithCoalescedRefresh makes concurrent 401s that hold the same refresh
// token share a single refresh call. It is on by default.
func WithCoalescedRefresh(enabled bool) Option {
	return func(g *Gateway) {
		g.coalesce = enabled
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(g *Gateway) {
		g.metrics = c
	}
}

// WithRequestIDFunc replaces the uuid generator, mostly for tests.
func WithRequestIDFunc(f func() string) Option {
	return func(g *Gateway) {
		g.newID = f
	}
}

func New(baseURL string, creds Credentials, refresher Refresher, opts ...Option) (*Gateway, error) {
	if baseURL == "" {
		return nil, errors.New("[gateway.New] base URL is required")
	}
	if creds == nil {
		return nil, errors.New("[gateway.New] credentials are required")
	}
	if refresher == nil {
		return nil, errors.New("[gateway.New] refresher is required")
	}

	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		creds:      creds,
		refresher:  refresher,
		coalesce:   true,
		logger:     zerolog.Nop(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// decision is the per-call record that bounds recovery to one retry.
type decision struct {
	attempt   Attempt
	requestID string
}

// Do sends req with the current access token. A 401 on the original
// attempt, while a refresh token is held, triggers one refresh: on success
// the same request is sent once more with the new token and that outcome is
// returned as-is; on failure the session is cleared and the original 401 is
// returned. Every other outcome is returned unchanged.
//
// Cancelling ctx while a refresh is in flight returns the context error at
// once. The refresh itself carries on detached and its outcome still updates
// the session.
func (g *Gateway) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	d := &decision{attempt: AttemptOriginal, requestID: g.newID()}
	resp, err := g.send(ctx, req, d, g.creds.AccessToken())

	refreshToken, ok := g.recoverable(d, err)
	if !ok {
		return resp, err
	}

	d.attempt = AttemptRetried
	log := g.logger.With().Str("request_id", d.requestID).Logger()

	pair, rerr := g.refresh(ctx, refreshToken)
	if ctxErr := ctx.Err(); rerr != nil && ctxErr != nil {
		log.Debug().Err(ctxErr).Msg("caller gave up while token refresh was in flight")
		return nil, fmt.Errorf("%s %s: token refresh: %w", req.Method, req.Path, ctxErr)
	}
	if rerr != nil {
		return nil, err
	}

	log.Debug().Str("method", req.Method).Str("path", req.Path).Msg("token refreshed, retrying request")
	return g.send(ctx, req, d, pair.AccessToken)
}

// recoverable returns the refresh token to use when err qualifies for the
// single refresh-and-retry.
func (g *Gateway) recoverable(d *decision, err error) (string, bool) {
	var se *StatusError
	if !errs.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		return "", false
	}
	if d.attempt != AttemptOriginal {
		return "", false
	}
	refreshToken := g.creds.RefreshToken()
	return refreshToken, refreshToken != ""
}

type refreshResult struct {
	pair oauth2.TokenPair
	err  error
}

// refresh waits for a new pair or for ctx, whichever comes first. The work
// runs detached from ctx. With coalescing on, callers holding the same
// refresh token share one call.
func (g *Gateway) refresh(ctx context.Context, refreshToken string) (oauth2.TokenPair, error) {
	detached := context.WithoutCancel(ctx)

	if g.coalesce {
		ch := g.flight.DoChan(refreshToken, func() (any, error) {
			return g.refreshDetached(detached, refreshToken)
		})
		select {
		case <-ctx.Done():
			return oauth2.TokenPair{}, ctx.Err()
		case res := <-ch:
			if res.Shared {
				g.logger.Debug().Msg("joined in-flight token refresh")
			}
			if res.Err != nil {
				return oauth2.TokenPair{}, res.Err
			}
			return res.Val.(oauth2.TokenPair), nil
		}
	}

	done := make(chan refreshResult, 1)
	go func() {
		pair, err := g.refreshDetached(detached, refreshToken)
		done <- refreshResult{pair: pair, err: err}
	}()
	select {
	case <-ctx.Done():
		return oauth2.TokenPair{}, ctx.Err()
	case res := <-done:
		return res.pair, res.err
	}
}

// refreshDetached performs one refresh bounded by the request timeout and
// settles the session: new tokens are stored, or the session is cleared.
// Metrics count each refresh once however many callers wait on it.
func (g *Gateway) refreshDetached(ctx context.Context, refreshToken string) (oauth2.TokenPair, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	pair, err := g.refreshAndStore(ctx, refreshToken)
	if err != nil {
		g.metrics.ObserveRefresh(metrics.RefreshFailure)
		g.logger.Warn().Err(err).Msg("token refresh failed, clearing session")
		if cerr := g.creds.ClearAuth(context.WithoutCancel(ctx)); cerr != nil {
			g.logger.Warn().Err(cerr).Msg("could not clear session after failed refresh")
		}
		return oauth2.TokenPair{}, err
	}

	g.metrics.ObserveRefresh(metrics.RefreshSuccess)
	return pair, nil
}

func (g *Gateway) refreshAndStore(ctx context.Context, refreshToken string) (oauth2.TokenPair, error) {
	pair, err := g.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return oauth2.TokenPair{}, err
	}
	if err := g.creds.SetTokens(ctx, pair); err != nil {
		return oauth2.TokenPair{}, err
	}
	return pair, nil
}

func (g *Gateway) send(ctx context.Context, req *Request, d *decision, accessToken string) (*Response, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	httpReq, err := req.newHTTPRequest(ctx, g.baseURL, d.requestID, accessToken)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		g.metrics.ObserveRequest(req.Method, 0, d.attempt.String(), time.Since(start))
		g.logger.Debug().Err(err).Str("request_id", d.requestID).Str("method", req.Method).Str("path", req.Path).Msg("request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		g.metrics.ObserveRequest(req.Method, 0, d.attempt.String(), time.Since(start))
		return nil, fmt.Errorf("%w: read %s %s: %w", ErrTransport, req.Method, req.Path, err)
	}
	g.metrics.ObserveRequest(req.Method, httpResp.StatusCode, d.attempt.String(), time.Since(start))

	g.logger.Debug().
		Str("request_id", d.requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Stringer("attempt", d.attempt).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: httpResp.StatusCode,
			Header:     httpResp.Header,
			Body:       body,
			Attempt:    d.attempt,
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Attempt:    d.attempt,
		RequestID:  d.requestID,
	}, nil
}
