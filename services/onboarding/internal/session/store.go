package session

import (
	"context"
	"errors"
	"time"
)

// ErrMissing is returned by Store.Get for an absent or expired key.
var ErrMissing = errors.New("session key not found")

// Fixed keys of the per-session key space.
const (
	KeyAuthToken = "auth_token"
	KeyTheme     = "theme"
)

// Store is a per-session key space.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, sid, key string) error
	// CompareAndDelete removes key only while it still holds expected.
	CompareAndDelete(ctx context.Context, sid, key, expected string) (bool, error)
	Ping(ctx context.Context) error
}
