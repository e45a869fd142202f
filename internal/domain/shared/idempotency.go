package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of requests that were already handled
type IdempotencyStore interface {
	// MarkProcessed records key with a TTL.
	// Returns true if the key was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether key is recorded and not yet expired
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets key so a failed request can be retried with it
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// IdempotencyConfig holds TTL settings for idempotency keys
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for 24 hours
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
