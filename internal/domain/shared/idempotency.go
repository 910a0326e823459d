package shared

import (
	"context"
	"time"
)

// IdempotencyStore records client-supplied request keys so that a retried
// write is not applied twice
type IdempotencyStore interface {
	// Claim reserves key for ttl. It returns false when the key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees key so the same request can be retried
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
