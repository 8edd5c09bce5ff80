// Package client assembles a ready to use authenticated API client from
// configuration: token persistence, session state, the request gateway and
// the typed endpoints.
package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/gateway"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/log"
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Client owns every component and the token repo's lifetime.
type Client struct {
	baseURL string
	logger  zerolog.Logger
	repo    tokenstore.Repo
	store   *session.Store
	gateway *gateway.Gateway
	api     *authapi.Client
	session *session.Service
	metrics *metrics.Collector
}

type options struct {
	logger     *zerolog.Logger
	httpClient *http.Client
	registerer prometheus.Registerer
	repo       tokenstore.Repo
	verifier   session.IDTokenVerifier
}

// Option configures New.
type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRegisterer registers the gateway metrics. Without it they are
// collected but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithRepo bypasses the configured token store.
func WithRepo(repo tokenstore.Repo) Option {
	return func(o *options) {
		o.repo = repo
	}
}

// WithIDTokenVerifier bypasses OIDC discovery for Google sign-in.
func WithIDTokenVerifier(v session.IDTokenVerifier) Option {
	return func(o *options) {
		o.verifier = v
	}
}

// New wires the client. ctx is only used for OIDC discovery when a Google
// client ID is configured. Restore is not called.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[client.New] config is required")
	}
	o := &options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}

	logger := log.New(cfg.GetEnv())
	if o.logger != nil {
		logger = *o.logger
	}
	logger = logger.With().Str("app", cfg.GetAppName()).Logger()

	repo := o.repo
	if repo == nil {
		var err error
		if repo, err = newRepo(cfg); err != nil {
			return nil, fmt.Errorf("[client.New] token store: %w", err)
		}
	}

	c := &Client{
		baseURL: cfg.GetAPIBaseURL(),
		logger:  logger,
		repo:    repo,
		metrics: metrics.NewCollector(o.registerer),
	}
	if err := c.wire(ctx, cfg, o); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) wire(ctx context.Context, cfg config.Config, o *options) error {
	c.store = session.NewStore(c.repo, session.WithStoreLogger(component(c.logger, "store")))

	refresher, err := authapi.NewRefresher(c.baseURL,
		authapi.WithHTTPClient(o.httpClient),
		authapi.WithTimeout(cfg.GetRequestTimeout()),
	)
	if err != nil {
		return err
	}

	c.gateway, err = gateway.New(c.baseURL, c.store, refresher,
		gateway.WithHTTPClient(o.httpClient),
		gateway.WithTimeout(cfg.GetRequestTimeout()),
		gateway.WithCoalescedRefresh(cfg.GetRefreshCoalescing()),
		gateway.WithLogger(component(c.logger, "gateway")),
		gateway.WithMetrics(c.metrics),
	)
	if err != nil {
		return err
	}

	c.api, err = authapi.NewClient(c.baseURL, c.gateway,
		authapi.WithHTTPClient(o.httpClient),
		authapi.WithTimeout(cfg.GetRequestTimeout()),
	)
	if err != nil {
		return err
	}

	serviceOpts := []session.ServiceOption{
		session.WithLogger(component(c.logger, "session")),
		session.WithRestoreTimeout(cfg.GetRestoreTimeout()),
	}
	verifier := o.verifier
	if verifier == nil && cfg.GetGoogleClientID() != "" {
		provider, err := oidc.NewProvider(oidc.ClientContext(ctx, o.httpClient), cfg.GetGoogleIssuer())
		if err != nil {
			return fmt.Errorf("[client.New] google oidc discovery: %w", err)
		}
		verifier = provider.Verifier(&oidc.Config{ClientID: cfg.GetGoogleClientID()})
	}
	if verifier != nil {
		serviceOpts = append(serviceOpts, session.WithIDTokenVerifier(verifier))
	}

	c.session, err = session.NewService(c.store, c.api, serviceOpts...)
	return err
}

func newRepo(cfg config.StorageConfig) (tokenstore.Repo, error) {
	storeType := tokenstore.StoreType(cfg.GetTokenStoreType())
	switch storeType {
	case tokenstore.StoreTypeRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		repo, err := tokenstore.NewRepo(storeType,
			tokenstore.WithRedisClient(rdb),
			tokenstore.WithRedisKeyPrefix(cfg.GetRedisKeyPrefix()),
		)
		if err != nil {
			_ = rdb.Close()
		}
		return repo, err
	default:
		return tokenstore.NewRepo(storeType,
			tokenstore.WithFilePath(cfg.GetTokenFile()),
			tokenstore.WithFilePassphrase(cfg.GetTokenFilePassphrase()),
		)
	}
}

func component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func (c *Client) BaseURL() string { return c.baseURL }
func (c *Client) Session() *session.Service { return c.session }
func (c *Client) Store() *session.Store { return c.store }
func (c *Client) Gateway() *gateway.Gateway { return c.gateway }
func (c *Client) API() *authapi.Client { return c.api }
func (c *Client) Metrics() *metrics.Collector { return c.metrics }

// Do sends an authenticated request through the gateway.
func (c *Client) Do(ctx context.Context, req *gateway.Request) (*gateway.Response, error) {
	return c.gateway.Do(ctx, req)
}

// Close releases the token repo. The session must not be used afterwards.
func (c *Client) Close() error {
	return c.repo.Close()
}
