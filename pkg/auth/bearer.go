// Package auth keeps a bearer token for one server and user fresh.
//
// The Authenticator acquires a token eagerly, refreshes it once less than
// RefreshThreshold of its lifetime remains (keep-alive first, basic
// credentials as fallback), and invalidates it on Close unless it is shared
// through a cache. Refresh is serialised behind a single mutex, so concurrent
// callers crossing the threshold trigger exactly one refresh and all proceed
// with the new token.
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/porthorian/jamfpro/pkg/cache"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

const (
	TokenPath      = "/api/v1/auth/token"
	KeepAlivePath  = "/api/v1/auth/keep-alive"
	InvalidatePath = "/api/v1/auth/invalidate-token"
)

type Config struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
	Logger     logr.Logger
	Now        func() time.Time
	// Cache, when set, shares tokens between authenticators for the same
	// server and user.
	Cache cache.TokenCache
}

type Authenticator struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     logr.Logger
	now        func() time.Time
	cache      cache.TokenCache
	cacheKey   string

	mu    sync.Mutex
	token Token
	// shared is set while the token is published to or adopted from cache.
	shared bool
}

// New builds an Authenticator without contacting the server.
func New(config Config) (*Authenticator, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, jerrors.ErrMissingBaseURL
	}

	a := &Authenticator{
		baseURL:    baseURL,
		username:   config.Username,
		password:   config.Password,
		httpClient: config.HTTPClient,
		logger:     config.Logger,
		now:        config.Now,
		cache:      config.Cache,
		cacheKey:   CacheKey(baseURL, config.Username),
	}
	if a.httpClient == nil {
		a.httpClient = http.DefaultClient
	}
	if a.logger.GetSink() == nil {
		a.logger = logr.Discard()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// NewAuthenticator builds an Authenticator and acquires the first token.
func NewAuthenticator(ctx context.Context, config Config) (*Authenticator, error) {
	a, err := New(config)
	if err != nil {
		return nil, err
	}
	if err := a.Open(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// CacheKey derives a stable cache key that does not expose the user name.
func CacheKey(baseURL, username string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(baseURL+"|"+username)).String()
}

// Token returns a fresh bearer token, refreshing first when needed.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token.NeedsRefresh(a.now()) {
		if err := a.refreshLocked(ctx, true); err != nil {
			return "", err
		}
	}
	return a.token.Value, nil
}

// Attach sets the Authorization header, replacing any caller supplied value.
func (a *Authenticator) Attach(req *http.Request) error {
	token, err := a.Token(req.Context())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Refresh forces a new token regardless of the remaining lifetime.
func (a *Authenticator) Refresh(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshLocked(ctx, false)
}

// State returns a copy of the current token state.
func (a *Authenticator) State() Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// Open ensures a valid token. It is idempotent.
func (a *Authenticator) Open(ctx context.Context) error {
	_, err := a.Token(ctx)
	return err
}

// Close invalidates the token. It is idempotent.
func (a *Authenticator) Close(ctx context.Context) error {
	_, err := a.Invalidate(ctx)
	return err
}

// Invalidate revokes the token server side and resets to the absent state
// whatever the outcome. It reports whether the server accepted the request.
//
// A token shared through the cache is only dropped locally. It stays valid
// for the other holders until it expires.
func (a *Authenticator) Invalidate(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.token.Present() {
		return true, nil
	}

	token := a.token.Value
	shared := a.shared
	a.token = Token{}
	a.shared = false
	if shared {
		a.logger.V(1).Info("released shared bearer token")
		return true, nil
	}

	status, _, err := a.post(ctx, InvalidatePath, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	if err != nil {
		a.logger.V(1).Info("invalidate token request failed", "error", err.Error())
		return false, jerrors.Wrap(jerrors.CodeHTTPFailure, "invalidate token request failed", err)
	}

	ok := status == http.StatusOK || status == http.StatusNoContent
	a.logger.V(1).Info("invalidated bearer token", "status", status, "accepted", ok)
	return ok, nil
}

func (a *Authenticator) refreshLocked(ctx context.Context, useCache bool) error {
	if useCache && a.adoptCached(ctx) {
		return nil
	}

	// Keep-alive revokes the current token, which would break other holders.
	if a.token.Present() && !a.shared {
		token, ok := a.keepAlive(ctx)
		if ok {
			a.store(ctx, token, "keep-alive")
			return nil
		}
	}

	token, err := a.acquire(ctx)
	if err != nil {
		return err
	}
	a.store(ctx, token, "basic")
	return nil
}

func (a *Authenticator) keepAlive(ctx context.Context) (Token, bool) {
	current := a.token.Value
	status, body, err := a.post(ctx, KeepAlivePath, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+current)
	})
	if err != nil {
		a.logger.V(1).Info("keep-alive request failed, falling back to basic auth", "error", err.Error())
		return Token{}, false
	}
	if status != http.StatusOK {
		a.logger.V(1).Info("keep-alive rejected, falling back to basic auth", "status", status)
		return Token{}, false
	}

	token, err := decodeToken(body, a.now())
	if err != nil {
		a.logger.V(1).Info("keep-alive response unusable, falling back to basic auth", "error", err.Error())
		return Token{}, false
	}
	return token, true
}

func (a *Authenticator) acquire(ctx context.Context) (Token, error) {
	status, body, err := a.post(ctx, TokenPath, func(req *http.Request) {
		req.SetBasicAuth(a.username, a.password)
	})
	if err != nil {
		return Token{}, jerrors.Wrap(jerrors.CodeAuthFailure, "token request failed", err)
	}
	if status != http.StatusOK {
		return Token{}, &jerrors.Error{
			Code:       jerrors.CodeAuthFailure,
			Message:    fmt.Sprintf("authentication failed with status %d: %s", status, string(body)),
			StatusCode: status,
			Body:       string(body),
		}
	}
	return decodeToken(body, a.now())
}

func (a *Authenticator) store(ctx context.Context, token Token, source string) {
	a.token = token
	a.shared = false
	a.logger.V(1).Info("refreshed bearer token", "source", source, "expires", token.Expires, "lifetime", token.Lifetime)

	if a.cache == nil {
		return
	}
	ttl := token.Expires.Sub(a.now())
	if ttl <= 0 {
		return
	}
	snapshot := cache.TokenSnapshot{Token: token.Value, Expires: token.Expires, Lifetime: token.Lifetime}
	if err := a.cache.SetToken(ctx, a.cacheKey, snapshot, ttl); err != nil {
		a.logger.V(1).Info("failed to cache bearer token", "error", err.Error())
		return
	}
	a.shared = true
}

func (a *Authenticator) adoptCached(ctx context.Context) bool {
	if a.cache == nil {
		return false
	}

	snapshot, ok, err := a.cache.GetToken(ctx, a.cacheKey)
	if err != nil {
		a.logger.V(1).Info("failed to read cached bearer token", "error", err.Error())
		return false
	}
	if !ok {
		return false
	}

	token := Token{Value: snapshot.Token, Expires: snapshot.Expires, Lifetime: snapshot.Lifetime}
	if token.Value == a.token.Value || token.NeedsRefresh(a.now()) {
		return false
	}

	a.token = token
	a.shared = true
	a.logger.V(1).Info("adopted cached bearer token", "expires", token.Expires)
	return true
}

func (a *Authenticator) post(ctx context.Context, path string, authorize func(*http.Request)) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	authorize(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// InvalidateToken revokes a token this process does not hold, such as one
// printed by an earlier command.
func InvalidateToken(ctx context.Context, httpClient *http.Client, baseURL, token string) (bool, error) {
	a, err := New(Config{BaseURL: baseURL, HTTPClient: httpClient})
	if err != nil {
		return false, err
	}
	a.token = Token{Value: token}
	return a.Invalidate(ctx)
}
