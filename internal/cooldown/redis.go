// Package cooldown enforces the minimum interval between two bids of the
// same user on the same auction.
package cooldown

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGate stores the time of each user's last bid per auction.  The entry
// outlives the cooldown it times: its TTL is twice the cooldown with a
// configurable floor.
type RedisGate struct {
	rdb   *redis.Client
	floor time.Duration
	now   func() time.Time
}

// NewRedisGate returns a gate bound to rdb.  floor is the minimum TTL of a
// gate entry.
func NewRedisGate(rdb *redis.Client, floor time.Duration) *RedisGate {
	if rdb == nil {
		panic("cooldown: nil redis client")
	}
	return &RedisGate{rdb: rdb, floor: floor, now: time.Now}
}

func key(auctionID, userID uint64) string {
	return fmt.Sprintf("bid-cooldown:%d:%d", auctionID, userID)
}

// SecondsSinceLastBid returns the whole seconds elapsed since the user's
// last recorded bid.  The boolean is false when no bid is on record.
func (g *RedisGate) SecondsSinceLastBid(ctx context.Context, auctionID, userID uint64) (int64, bool, error) {
	raw, err := g.rdb.Get(ctx, key(auctionID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cooldown: read: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("cooldown: corrupt entry %q: %w", raw, err)
	}
	elapsed := g.now().UnixMilli() - ms
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed / 1000, true, nil
}

// RecordBid stores the current time as the user's last bid.
func (g *RedisGate) RecordBid(ctx context.Context, auctionID, userID uint64, cooldownSeconds int) error {
	ttl := 2 * time.Duration(cooldownSeconds) * time.Second
	if ttl < g.floor {
		ttl = g.floor
	}
	v := strconv.FormatInt(g.now().UnixMilli(), 10)
	if err := g.rdb.Set(ctx, key(auctionID, userID), v, ttl).Err(); err != nil {
		return fmt.Errorf("cooldown: record: %w", err)
	}
	return nil
}
