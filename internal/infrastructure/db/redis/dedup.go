package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupTTL outlives the gateway's webhook retry window.
const dedupTTL = 24 * time.Hour

// DedupChecker remembers payment callbacks that were already applied.
// Key format: dedup:payment:<order_id>:<payment_id>
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this order/payment pair has already been applied.
func (d *DedupChecker) IsDuplicate(ctx context.Context, orderID, paymentID string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(orderID, paymentID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this callback has been applied (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, orderID, paymentID string) error {
	return d.client.Set(ctx, dedupKey(orderID, paymentID), "1", dedupTTL).Err()
}

func dedupKey(orderID, paymentID string) string {
	return fmt.Sprintf("dedup:payment:%s:%s", orderID, paymentID)
}
