package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "confreg/pkg/domain-errors"
)

// Locker serializes work on one registrant. Completion holds it across the
// idempotency re-check, the permanent write, and the provisional delete.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// numLockShards spreads registrants across mutexes so unrelated completions
// do not contend.
const numLockShards = 128

// defaultLockTimeout bounds the work done while holding a lock.
const defaultLockTimeout = 15 * time.Second

// ShardedLocker is the single-instance Locker.
type ShardedLocker struct {
	shards  [numLockShards]sync.Mutex
	timeout time.Duration
}

// NewShardedLocker returns a locker with the default timeout.
func NewShardedLocker() *ShardedLocker {
	return &ShardedLocker{timeout: defaultLockTimeout}
}

func (l *ShardedLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	shard := hashKey(key) % numLockShards
	l.shards[shard].Lock()
	defer l.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
	}
	return fn(ctx)
}

// hashKey uses FNV-1a for an even shard distribution.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

const lockKeyPrefix = "confreg:lock:"

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease-based Locker shared by every instance. The lease
// expires after ttl so a crashed holder cannot block a registrant forever.
type RedisLocker struct {
	client   *redis.Client
	ttl      time.Duration
	retryGap time.Duration
}

// NewRedisLocker constructs a Redis lease locker.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTimeout
	}
	return &RedisLocker{client: client, ttl: ttl, retryGap: 50 * time.Millisecond}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()
	redisKey := lockKeyPrefix + key

	waitCtx, cancelWait := context.WithTimeout(ctx, l.ttl)
	err := l.acquire(waitCtx, redisKey, token)
	cancelWait()
	if err != nil {
		return err
	}
	defer func() {
		// release must run even if ctx is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	return fn(lockCtx)
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retryGap)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire registration lock")
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, fmt.Sprintf("timed out waiting for lock %s", key))
		case <-ticker.C:
		}
	}
}
