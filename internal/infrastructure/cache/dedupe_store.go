// Package cache provides the webhook deduplication stores. Vendors redeliver
// webhook events; delivery IDs are remembered with a TTL so replays are
// acknowledged without reprocessing.
package cache

import (
	"context"
	"time"
)

// DefaultDedupeTTL is how long a delivery ID is remembered
const DefaultDedupeTTL = 24 * time.Hour

// DedupeStore remembers processed webhook delivery IDs
type DedupeStore interface {
	// MarkProcessed records a delivery ID with a TTL. It returns true when
	// the ID was newly recorded and false when it was already known.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether a delivery ID is already known
	IsProcessed(ctx context.Context, deliveryID string) (bool, error)

	// Close releases store resources
	Close() error
}
