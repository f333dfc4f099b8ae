package jamfpro

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/porthorian/jamfpro/pkg/auth"
	"github.com/porthorian/jamfpro/pkg/cache/memory"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

type fakeServer struct {
	mu         sync.Mutex
	calls      map[string]int
	authHeader map[string]string
	revoked    map[string]bool
	issued     int
}

func (f *fakeServer) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeServer) authorization(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authHeader[path]
}

var fixedNow = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func newServer(t *testing.T) (*httptest.Server, *fakeServer) {
	t.Helper()
	fake := &fakeServer{calls: map[string]int{}, authHeader: map[string]string{}, revoked: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.calls[r.URL.Path]++
		fake.issued++
		issued := fake.issued
		fake.mu.Unlock()

		if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Unauthorized"))
			return
		}
		expires := auth.FormatExpires(fixedNow.Add(100*time.Minute), true)
		_, _ = w.Write([]byte(`{"token":"T` + strconv.Itoa(issued) + `","expires":"` + expires + `"}`))
	})
	mux.HandleFunc("/api/v1/auth/invalidate-token", func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.calls[r.URL.Path]++
		fake.authHeader[r.URL.Path] = r.Header.Get("Authorization")
		fake.revoked[r.Header.Get("Authorization")] = true
		fake.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.calls[r.URL.Path]++
		fake.authHeader[r.URL.Path] = r.Header.Get("Authorization")
		revoked := fake.revoked[r.Header.Get("Authorization")]
		fake.mu.Unlock()
		if revoked {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("token revoked"))
			return
		}
		if r.URL.Path == "/JSSResource/buildings/id/1" {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte("<building><id>1</id></building>"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalCount":0,"results":[]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, fake
}

func testConfig(server *httptest.Server) Config {
	return Config{
		BaseURL:    server.URL + "/",
		Username:   "admin",
		Password:   "secret",
		HTTPClient: server.Client(),
		Now:        func() time.Time { return fixedNow },
	}
}

func TestNewAcquiresAndCloseInvalidates(t *testing.T) {
	server, fake := newServer(t)
	ctx := context.Background()

	client, err := New(ctx, testConfig(server))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if fake.count("/api/v1/auth/token") != 1 {
		t.Fatalf("expected eager token acquisition, got %d", fake.count("/api/v1/auth/token"))
	}
	state := client.TokenState()
	if state.Value != "T1" || state.Lifetime != 100*time.Minute {
		t.Fatalf("unexpected state: %+v", state)
	}

	result, err := client.Classic.Buildings.Get(ctx, ByID(1))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if result.String() != "<building><id>1</id></building>" {
		t.Fatalf("unexpected body: %q", result.String())
	}
	if got := fake.authorization("/JSSResource/buildings/id/1"); got != "Bearer T1" {
		t.Fatalf("unexpected authorization: %q", got)
	}

	if _, err := client.Pro.Buildings.List(ctx, ListOptions{}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if fake.count("/api/v1/auth/token") != 1 {
		t.Fatal("expected the token to be reused")
	}

	if err := client.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if fake.count("/api/v1/auth/invalidate-token") != 1 || fake.authorization("/api/v1/auth/invalidate-token") != "Bearer T1" {
		t.Fatal("expected close to invalidate the token")
	}
	if client.TokenState() != (auth.Token{}) {
		t.Fatalf("expected absent token after close, got %+v", client.TokenState())
	}

	if err := client.Close(ctx); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if fake.count("/api/v1/auth/invalidate-token") != 1 {
		t.Fatal("expected close to be idempotent")
	}
}

func TestNewFailsOnBadCredentials(t *testing.T) {
	server, _ := newServer(t)
	config := testConfig(server)
	config.Password = "wrong"

	_, err := New(context.Background(), config)
	if !jerrors.IsCode(err, jerrors.CodeAuthFailure) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	var typed *jerrors.Error
	if !errors.As(err, &typed) || typed.StatusCode != http.StatusUnauthorized || typed.Body != "Unauthorized" {
		t.Fatalf("expected status and body on auth failure, got %#v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	ctx := context.Background()

	if _, err := New(ctx, Config{BaseURL: " / "}); !errors.Is(err, jerrors.ErrMissingBaseURL) {
		t.Fatalf("expected missing base url, got %v", err)
	}

	_, err := New(ctx, Config{BaseURL: "https://example.invalid", Runtime: RuntimeConfig{Cache: CacheConfig{Backend: "memcached"}}})
	if err == nil {
		t.Fatal("expected unsupported cache backend to fail")
	}

	_, err = New(ctx, Config{BaseURL: "https://example.invalid", Runtime: RuntimeConfig{Cache: CacheConfig{Backend: CacheBackendRedis}}})
	if err == nil {
		t.Fatal("expected redis backend without address to fail")
	}
}

func TestInitializeDefaults(t *testing.T) {
	closeResource, resolved, err := Config{
		BaseURL: "https://example.invalid/",
		Runtime: RuntimeConfig{Cache: CacheConfig{Backend: CacheBackendRedis, Redis: RedisCacheConfig{Address: "127.0.0.1:6379"}}},
	}.initialize()
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	t.Cleanup(func() { _ = closeResource() })

	if resolved.BaseURL != "https://example.invalid" {
		t.Fatalf("expected trailing slash trimmed, got %q", resolved.BaseURL)
	}
	if resolved.HTTPClient == nil || resolved.HTTPClient.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected pooled http client, got %+v", resolved.HTTPClient)
	}
	if resolved.Runtime.Cache.Redis.DialTimeout != defaultRedisDialTimeout {
		t.Fatalf("expected default dial timeout, got %v", resolved.Runtime.Cache.Redis.DialTimeout)
	}
	if resolved.TokenCache == nil || resolved.Now == nil {
		t.Fatal("expected token cache and clock to be set")
	}
}

func TestMemoryCacheSharesTokens(t *testing.T) {
	server, fake := newServer(t)
	ctx := context.Background()

	config := testConfig(server)
	config.TokenCache = memory.NewAdapter().WithClock(func() time.Time { return fixedNow })
	config.Runtime.Cache.Backend = CacheBackendMemory

	first, err := New(ctx, config)
	if err != nil {
		t.Fatalf("first client failed: %v", err)
	}
	second, err := New(ctx, config)
	if err != nil {
		t.Fatalf("second client failed: %v", err)
	}

	if fake.count("/api/v1/auth/token") != 1 {
		t.Fatalf("expected one acquisition across clients, got %d", fake.count("/api/v1/auth/token"))
	}
	if first.TokenState().Value != second.TokenState().Value {
		t.Fatal("expected clients to share the cached token")
	}
}

func TestWithSession(t *testing.T) {
	server, fake := newServer(t)
	ctx := context.Background()

	var seen string
	err := WithSession(ctx, testConfig(server), func(ctx context.Context, c *Client) error {
		token, err := c.Token(ctx)
		seen = token
		return err
	})
	if err != nil {
		t.Fatalf("session failed: %v", err)
	}
	if seen != "T1" || fake.count("/api/v1/auth/invalidate-token") != 1 {
		t.Fatalf("expected token T1 and one invalidate, got %q and %d", seen, fake.count("/api/v1/auth/invalidate-token"))
	}

	boom := errors.New("boom")
	err = WithSession(ctx, testConfig(server), func(ctx context.Context, c *Client) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if fake.count("/api/v1/auth/invalidate-token") != 2 {
		t.Fatal("expected invalidate on the error path")
	}

	config := testConfig(server)
	config.Password = "wrong"
	called := false
	err = WithSession(ctx, config, func(ctx context.Context, c *Client) error {
		called = true
		return nil
	})
	if called || !jerrors.IsCode(err, jerrors.CodeAuthFailure) {
		t.Fatalf("expected auth failure before fn, got called=%v err=%v", called, err)
	}
}

func TestClientDoAndMetrics(t *testing.T) {
	server, fake := newServer(t)
	ctx := context.Background()
	registry := prometheus.NewRegistry()

	config := testConfig(server)
	config.MetricsRegisterer = registry
	client, err := New(ctx, config)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(ctx) })

	result, err := client.Do(ctx, http.MethodGet, Request{
		Path:    "/api/v2/mobile-devices",
		Headers: map[string]string{"Authorization": "Bearer forged"},
	})
	if err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if fake.authorization("/api/v2/mobile-devices") != "Bearer T1" {
		t.Fatal("expected the session token to replace the caller's header")
	}
	var page struct {
		TotalCount int `json:"totalCount"`
	}
	if err := result.Decode(&page); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	count, err := testutil.GatherAndCount(registry, "jamfpro_client_requests_total")
	if err != nil || count != 1 {
		t.Fatalf("expected one request series, got %d (%v)", count, err)
	}
}

func TestSessionsShareMetricsRegisterer(t *testing.T) {
	server, _ := newServer(t)
	ctx := context.Background()
	registry := prometheus.NewRegistry()

	config := testConfig(server)
	config.MetricsRegisterer = registry
	for i := 0; i < 2; i++ {
		err := WithSession(ctx, config, func(ctx context.Context, c *Client) error {
			_, err := c.Pro.Buildings.List(ctx, ListOptions{})
			return err
		})
		if err != nil {
			t.Fatalf("session %d failed: %v", i+1, err)
		}
	}

	expected := `
# HELP jamfpro_client_requests_total Requests sent to the server, by method and status code.
# TYPE jamfpro_client_requests_total counter
jamfpro_client_requests_total{code="200",method="GET"} 2
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "jamfpro_client_requests_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestSharedTokenSurvivesOtherClientClose(t *testing.T) {
	server, fake := newServer(t)
	ctx := context.Background()

	config := testConfig(server)
	config.TokenCache = memory.NewAdapter().WithClock(func() time.Time { return fixedNow })
	config.Runtime.Cache.Backend = CacheBackendMemory

	first, err := New(ctx, config)
	if err != nil {
		t.Fatalf("first client failed: %v", err)
	}
	second, err := New(ctx, config)
	if err != nil {
		t.Fatalf("second client failed: %v", err)
	}

	if err := first.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if first.TokenState() != (auth.Token{}) {
		t.Fatalf("expected absent token after close, got %+v", first.TokenState())
	}
	if fake.count("/api/v1/auth/invalidate-token") != 0 {
		t.Fatal("expected a shared token to stay valid on the server")
	}

	if _, err := second.Do(ctx, http.MethodGet, Request{Path: "/api/v1/buildings"}); err != nil {
		t.Fatalf("expected the other client to keep working, got %v", err)
	}
	if got := fake.authorization("/api/v1/buildings"); got != "Bearer T1" {
		t.Fatalf("unexpected authorization: %q", got)
	}

	if err := second.Close(ctx); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestReleaseKeepsToken(t *testing.T) {
	server, fake := newServer(t)
	ctx := context.Background()

	released := 0
	client, err := New(ctx, testConfig(server))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	client.closeResource = func() error {
		released++
		return nil
	}

	if err := client.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if released != 1 || fake.count("/api/v1/auth/invalidate-token") != 0 {
		t.Fatalf("expected resources released without invalidation, got released=%d invalidate=%d", released, fake.count("/api/v1/auth/invalidate-token"))
	}
	if client.TokenState().Value != "T1" {
		t.Fatalf("expected the token to stay, got %+v", client.TokenState())
	}

	if err := client.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if released != 1 || fake.count("/api/v1/auth/invalidate-token") != 1 {
		t.Fatalf("expected close to invalidate once and release nothing twice, got released=%d invalidate=%d", released, fake.count("/api/v1/auth/invalidate-token"))
	}
}
