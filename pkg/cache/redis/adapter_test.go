package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/porthorian/jamfpro/pkg/cache"
)

func TestNewAdapterRequiresAddress(t *testing.T) {
	if _, err := NewAdapter(Config{Address: "  "}); !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("expected missing address, got %v", err)
	}
}

func TestAdapterNamespacesKeys(t *testing.T) {
	adapter, err := NewAdapter(Config{Address: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("new adapter failed: %v", err)
	}
	defer adapter.Close()

	if got := adapter.key("abc"); got != "jamfpro:token:abc" {
		t.Fatalf("unexpected default key: %s", got)
	}

	custom := NewAdapterWithClient(adapter.client, "tenant-a")
	if got := custom.key("abc"); got != "tenant-a:abc" {
		t.Fatalf("unexpected namespaced key: %s", got)
	}
}

func TestSetTokenRejectsInvalidTTL(t *testing.T) {
	adapter, err := NewAdapter(Config{Address: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("new adapter failed: %v", err)
	}
	defer adapter.Close()

	err = adapter.SetToken(context.Background(), "abc", cache.TokenSnapshot{Token: "T1"}, -time.Second)
	if !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("expected invalid ttl, got %v", err)
	}
}
