package ports

import (
	"context"
	"time"
)

// Cache is a small key/value store used for idempotency reservations and
// config caching. Backed by Redis in production, an in-memory map otherwise.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// MessageQueue publishes payment events for downstream consumers
// (reconciliation, notifications).
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Close() error
}

// AuthService validates bearer tokens presented to the backend and issues
// them for trusted callers. User identity itself lives outside this module.
type AuthService interface {
	ValidateToken(ctx context.Context, token string) (userID string, err error)
	IssueToken(userID string, ttl time.Duration) (string, error)
}

// TokenSource supplies the bearer token for client-side calls. A nil or
// empty token means the caller is not authenticated.
type TokenSource interface {
	Token() string
}
