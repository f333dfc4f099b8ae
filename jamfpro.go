// Package jamfpro is a client for a device management server's HTTP API.
//
// A Client owns one authenticated session: a bearer token kept fresh by
// pkg/auth, shared by the classic XML resources (Client.Classic) and the JSON
// resources (Client.Pro). Close invalidates the token.
package jamfpro

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/porthorian/jamfpro/pkg/auth"
	"github.com/porthorian/jamfpro/pkg/cache"
	"github.com/porthorian/jamfpro/pkg/classic"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
	"github.com/porthorian/jamfpro/pkg/pro"
	"github.com/porthorian/jamfpro/pkg/session"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

type Config struct {
	BaseURL  string
	Username string
	Password string
	Logger   logr.Logger
	// HTTPClient replaces the pooled client built from Runtime.HTTP.
	HTTPClient *http.Client
	Now        func() time.Time
	// DownloadDir defaults to the user's Downloads directory.
	DownloadDir       string
	MetricsRegisterer prometheus.Registerer
	// TokenCache replaces the cache built from Runtime.Cache.
	TokenCache cache.TokenCache
	Runtime    RuntimeConfig
}

type Client struct {
	auth       *auth.Authenticator
	dispatcher *httptransport.Dispatcher
	logger     logr.Logger

	mu            sync.Mutex
	closed        bool
	closeResource func() error

	Classic *classic.Client
	Pro     *pro.Client
}

// New builds a Client and acquires the first token.
func New(ctx context.Context, config Config) (*Client, error) {
	c, err := newClient(config)
	if err != nil {
		return nil, err
	}

	if err := c.Open(ctx); err != nil {
		_ = c.Release()
		return nil, err
	}
	return c, nil
}

func newClient(config Config) (*Client, error) {
	closeResource, resolved, err := config.initialize()
	if err != nil {
		return nil, err
	}

	authenticator, err := auth.New(auth.Config{
		BaseURL:    resolved.BaseURL,
		Username:   resolved.Username,
		Password:   resolved.Password,
		HTTPClient: resolved.HTTPClient,
		Logger:     resolved.Logger.WithName("auth"),
		Now:        resolved.Now,
		Cache:      resolved.TokenCache,
	})
	if err != nil {
		_ = closeResource()
		return nil, err
	}

	dispatcher, err := httptransport.NewDispatcher(httptransport.Config{
		BaseURL:     resolved.BaseURL,
		HTTPClient:  resolved.HTTPClient,
		Authorizer:  authenticator,
		Logger:      resolved.Logger.WithName("http"),
		Metrics:     resolved.metrics,
		DownloadDir: resolved.DownloadDir,
	})
	if err != nil {
		_ = closeResource()
		return nil, err
	}

	return &Client{
		auth:          authenticator,
		dispatcher:    dispatcher,
		logger:        resolved.Logger,
		closeResource: closeResource,
		Classic:       classic.New(dispatcher),
		Pro:           pro.New(dispatcher),
	}, nil
}

// WithSession runs fn with a Client whose token is invalidated and whose
// resources are released on every exit path.
func WithSession(ctx context.Context, config Config, fn func(ctx context.Context, c *Client) error) error {
	c, err := newClient(config)
	if err != nil {
		return err
	}

	err = session.Run(ctx, c, func(ctx context.Context) error {
		return fn(ctx, c)
	})
	return stderrors.Join(err, c.Close(context.WithoutCancel(ctx)))
}

// Open ensures a valid token. It is idempotent.
func (c *Client) Open(ctx context.Context) error {
	return c.auth.Open(ctx)
}

// Close invalidates the token and releases cache connections. Calls after
// the first return nil.
func (c *Client) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	accepted, err := c.auth.Invalidate(ctx)
	if err == nil && !accepted {
		c.logger.V(1).Info("server did not accept token invalidation")
	}
	if closeErr := c.Release(); closeErr != nil {
		err = stderrors.Join(err, closeErr)
	}
	return err
}

// Release closes cache connections and leaves the token valid. Close still
// invalidates the token afterwards.
func (c *Client) Release() error {
	c.mu.Lock()
	closeResource := c.closeResource
	c.closeResource = nil
	c.mu.Unlock()
	if closeResource == nil {
		return nil
	}
	if err := closeResource(); err != nil {
		return jerrors.Wrap(jerrors.CodeHTTPFailure, "failed to close client resources", err)
	}
	return nil
}

// Token returns the current bearer token, refreshing first when needed.
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.auth.Token(ctx)
}

// TokenState reports the token, its expiry, and its total lifetime.
func (c *Client) TokenState() auth.Token {
	return c.auth.State()
}

// Invalidate revokes the token without closing the client. The next request
// acquires a new one.
func (c *Client) Invalidate(ctx context.Context) (bool, error) {
	return c.auth.Invalidate(ctx)
}

// Do sends a request to an endpoint without a typed wrapper.
func (c *Client) Do(ctx context.Context, method string, r Request) (*Result, error) {
	return c.dispatcher.Do(ctx, method, r)
}

// Download saves a response body to disk.
func (c *Client) Download(ctx context.Context, r DownloadRequest) (*Saved, error) {
	return c.dispatcher.Download(ctx, r)
}
