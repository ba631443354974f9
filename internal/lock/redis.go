// Package lock provides the distributed mutex that serializes bid attempts
// on one auction across every server instance.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's
// token, so a holder whose lease expired cannot free the next holder's lease.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// RedisLocker implements SET NX PX leases on a Redis server.  Acquire never
// waits: a held key fails immediately and the caller decides whether to
// retry.  Every lease carries its own token, also between requests of the
// same process.  The TTL only protects against a crashed holder; callers
// release explicitly on every path.
type RedisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker returns a locker bound to rdb.
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	if rdb == nil {
		panic("lock: nil redis client")
	}
	return &RedisLocker{rdb: rdb}
}

// Acquire tries once to take key for ttl and returns the lease token.  It
// reports false without error when another holder owns the key.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees key if it still holds token.  Releasing a lease that
// expired and moved on to another holder is a no-op.
func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("lock: release %s: %w", key, err)
	}
	return nil
}
