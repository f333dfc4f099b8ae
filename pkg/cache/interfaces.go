package cache

import (
	"context"
	"time"
)

// TokenSnapshot is a bearer token shared between clients of the same server
// and user.
type TokenSnapshot struct {
	Token    string        `json:"token"`
	Expires  time.Time     `json:"expires"`
	Lifetime time.Duration `json:"lifetime"`
}

type TokenCache interface {
	SetToken(ctx context.Context, key string, snapshot TokenSnapshot, ttl time.Duration) error
	GetToken(ctx context.Context, key string) (TokenSnapshot, bool, error)
	DeleteToken(ctx context.Context, key string) error
}
