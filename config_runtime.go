package jamfpro

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/porthorian/jamfpro/pkg/cache"
	memorycache "github.com/porthorian/jamfpro/pkg/cache/memory"
	rediscache "github.com/porthorian/jamfpro/pkg/cache/redis"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

type CacheBackend string

const (
	CacheBackendNone   CacheBackend = "none"
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

const (
	defaultHTTPTimeout         = 60 * time.Second
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
	defaultRedisDialTimeout    = 5 * time.Second
)

type RuntimeConfig struct {
	HTTP  HTTPConfig
	Cache CacheConfig
}

// HTTPConfig shapes the pooled client built when Config.HTTPClient is nil.
type HTTPConfig struct {
	Timeout             time.Duration
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

type CacheConfig struct {
	Backend CacheBackend
	Redis   RedisCacheConfig
}

type RedisCacheConfig struct {
	Address     string
	Username    string
	Password    string
	Database    int
	Namespace   string
	DialTimeout time.Duration
}

// resolvedConfig is Config after defaults are applied and runtime resources
// are built.
type resolvedConfig struct {
	Config
	metrics *httptransport.Metrics
}

func (c Config) initialize() (func() error, resolvedConfig, error) {
	config := resolvedConfig{Config: c}

	config.BaseURL = strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if config.BaseURL == "" {
		return nil, resolvedConfig{}, jerrors.ErrMissingBaseURL
	}
	config.Logger = resolveLogger(config.Logger, config.BaseURL)
	if config.Now == nil {
		config.Now = time.Now
	}

	config = initializeHTTP(config)

	if config.MetricsRegisterer != nil {
		metrics, err := httptransport.NewMetrics(config.MetricsRegisterer)
		if err != nil {
			return nil, resolvedConfig{}, fmt.Errorf("jamfpro config: failed to register metrics: %w", err)
		}
		config.metrics = metrics
	}

	closeCache, config, err := initializeCache(config)
	if err != nil {
		return nil, resolvedConfig{}, err
	}

	return joinClosers(closeCache), config, nil
}

func initializeHTTP(config resolvedConfig) resolvedConfig {
	if config.HTTPClient != nil {
		return config
	}

	httpConfig := config.Runtime.HTTP
	if httpConfig.Timeout <= 0 {
		httpConfig.Timeout = defaultHTTPTimeout
	}
	if httpConfig.MaxIdleConnsPerHost <= 0 {
		httpConfig.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if httpConfig.IdleConnTimeout <= 0 {
		httpConfig.IdleConnTimeout = defaultIdleConnTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = httpConfig.MaxIdleConnsPerHost
	transport.IdleConnTimeout = httpConfig.IdleConnTimeout

	config.HTTPClient = &http.Client{Timeout: httpConfig.Timeout, Transport: transport}
	config.Runtime.HTTP = httpConfig
	config.Logger.V(1).Info("initialized http client", "timeout", httpConfig.Timeout, "max_idle_conns_per_host", httpConfig.MaxIdleConnsPerHost)
	return config
}

func initializeCache(config resolvedConfig) (func() error, resolvedConfig, error) {
	backend := config.Runtime.Cache.Backend
	if backend == "" {
		backend = CacheBackendNone
	}

	switch backend {
	case CacheBackendNone:
		return noopCloser, config, nil
	case CacheBackendMemory:
		return initializeMemoryCache(config)
	case CacheBackendRedis:
		return initializeRedisCache(config)
	default:
		return nil, resolvedConfig{}, fmt.Errorf("jamfpro config: unsupported runtime.cache.backend %q", backend)
	}
}

func initializeMemoryCache(config resolvedConfig) (func() error, resolvedConfig, error) {
	if config.TokenCache == nil {
		config.TokenCache = sharedMemoryCache
	}

	config.Logger.V(1).Info("initialized memory token cache")
	return noopCloser, config, nil
}

// sharedMemoryCache lets clients in one process reuse a token for the same
// server and user.
var sharedMemoryCache cache.TokenCache = memorycache.NewAdapter()

func initializeRedisCache(config resolvedConfig) (func() error, resolvedConfig, error) {
	redisConfig := config.Runtime.Cache.Redis
	if strings.TrimSpace(redisConfig.Address) == "" {
		return nil, resolvedConfig{}, fmt.Errorf("jamfpro config: runtime.cache.redis.address is required")
	}
	if redisConfig.DialTimeout <= 0 {
		redisConfig.DialTimeout = defaultRedisDialTimeout
	}

	if config.TokenCache != nil {
		return noopCloser, config, nil
	}

	adapter, err := rediscache.NewAdapter(rediscache.Config{
		Address:     redisConfig.Address,
		Username:    redisConfig.Username,
		Password:    redisConfig.Password,
		Database:    redisConfig.Database,
		Namespace:   redisConfig.Namespace,
		DialTimeout: redisConfig.DialTimeout,
	})
	if err != nil {
		return nil, resolvedConfig{}, fmt.Errorf("jamfpro config: failed to initialize redis token cache: %w", err)
	}

	config.TokenCache = adapter
	config.Runtime.Cache.Redis = redisConfig
	config.Logger.V(1).Info("initialized redis token cache", "address", redisConfig.Address, "database", redisConfig.Database, "namespace", redisConfig.Namespace)
	return adapter.Close, config, nil
}

func joinClosers(closers ...func() error) func() error {
	return func() error {
		var errs []error

		for i := len(closers) - 1; i >= 0; i-- {
			if closers[i] == nil {
				continue
			}
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}

		return stderrors.Join(errs...)
	}
}

func noopCloser() error {
	return nil
}
