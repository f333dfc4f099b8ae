package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/porthorian/jamfpro/pkg/cache"
)

var (
	ErrInvalidTTL = errors.New("memory cache: ttl must be greater than zero")
)

type tokenEntry struct {
	snapshot cache.TokenSnapshot
	expires  time.Time
}

type Adapter struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[string]tokenEntry
}

var _ cache.TokenCache = (*Adapter)(nil)

func NewAdapter() *Adapter {
	return &Adapter{
		now:     time.Now,
		entries: map[string]tokenEntry{},
	}
}

// WithClock replaces the expiry clock; used by tests.
func (a *Adapter) WithClock(now func() time.Time) *Adapter {
	a.mu.Lock()
	a.now = now
	a.mu.Unlock()
	return a
}

func (a *Adapter) SetToken(ctx context.Context, key string, snapshot cache.TokenSnapshot, ttl time.Duration) error {
	if err := validateSetInput(key, ttl); err != nil {
		return err
	}

	a.mu.Lock()
	a.entries[key] = tokenEntry{
		snapshot: snapshot,
		expires:  a.now().UTC().Add(ttl),
	}
	a.mu.Unlock()
	return nil
}

func (a *Adapter) GetToken(ctx context.Context, key string) (cache.TokenSnapshot, bool, error) {
	a.mu.RLock()
	entry, ok := a.entries[key]
	now := a.now().UTC()
	a.mu.RUnlock()
	if !ok {
		return cache.TokenSnapshot{}, false, nil
	}

	if now.After(entry.expires) {
		a.mu.Lock()
		delete(a.entries, key)
		a.mu.Unlock()
		return cache.TokenSnapshot{}, false, nil
	}

	return entry.snapshot, true, nil
}

func (a *Adapter) DeleteToken(ctx context.Context, key string) error {
	a.mu.Lock()
	delete(a.entries, key)
	a.mu.Unlock()
	return nil
}

func validateSetInput(key string, ttl time.Duration) error {
	if key == "" {
		return errors.New("memory cache: key is required")
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
