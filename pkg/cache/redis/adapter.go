package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/porthorian/jamfpro/pkg/cache"
)

var (
	ErrMissingAddress = errors.New("redis cache adapter: address is required")
	ErrInvalidTTL     = errors.New("redis cache adapter: ttl must be greater than zero")
)

const defaultNamespace = "jamfpro:token"

type Config struct {
	Address     string
	Username    string
	Password    string
	Database    int
	Namespace   string
	DialTimeout time.Duration
}

type Adapter struct {
	client    goredis.UniversalClient
	namespace string
}

var _ cache.TokenCache = (*Adapter)(nil)

func NewAdapter(config Config) (*Adapter, error) {
	address := strings.TrimSpace(config.Address)
	if address == "" {
		return nil, ErrMissingAddress
	}

	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:       []string{address},
		Username:    strings.TrimSpace(config.Username),
		Password:    config.Password,
		DB:          config.Database,
		DialTimeout: config.DialTimeout,
		MaxRetries:  2,
	})

	return NewAdapterWithClient(client, config.Namespace), nil
}

// NewAdapterWithClient wraps an existing client, e.g. a sentinel or cluster client.
func NewAdapterWithClient(client goredis.UniversalClient, namespace string) *Adapter {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Adapter{client: client, namespace: namespace}
}

func (a *Adapter) key(key string) string {
	return a.namespace + ":" + key
}

func (a *Adapter) SetToken(ctx context.Context, key string, snapshot cache.TokenSnapshot, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis cache adapter: encode token: %w", err)
	}

	if err := a.client.Set(ctx, a.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache adapter: set token: %w", err)
	}
	return nil
}

func (a *Adapter) GetToken(ctx context.Context, key string) (cache.TokenSnapshot, bool, error) {
	payload, err := a.client.Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return cache.TokenSnapshot{}, false, nil
	}
	if err != nil {
		return cache.TokenSnapshot{}, false, fmt.Errorf("redis cache adapter: get token: %w", err)
	}

	var snapshot cache.TokenSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return cache.TokenSnapshot{}, false, fmt.Errorf("redis cache adapter: decode token: %w", err)
	}
	return snapshot, true, nil
}

func (a *Adapter) DeleteToken(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, a.key(key)).Err(); err != nil {
		return fmt.Errorf("redis cache adapter: delete token: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.client.Close()
}
