package shared

import (
	"context"
	"time"
)

// DefaultDedupTTL is how long a handled key is remembered when no TTL is configured
const DefaultDedupTTL = 24 * time.Hour

// IdempotencyStore remembers keys that have already been handled so a
// re-delivered event is not processed twice.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl. It returns false when key was
	// already recorded.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key is recorded
	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}
