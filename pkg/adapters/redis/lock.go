package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Locker implements ports.DistributedLocker using Redis SET NX PX.
//
// Acquisition is a single attempt: a held lock means another replica is
// mid-turn on the handle, and the caller should report busy rather than
// wait for a turn that may run for a minute.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// TryLock attempts one SET NX with the given TTL.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key

	// Value is unique per acquisition so release can verify ownership.
	val := fmt.Sprintf("%d", time.Now().UnixNano())

	success, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring lock: %w", err)
	}
	if !success {
		return nil, domain.ErrConversationBusy
	}

	return func(ctx context.Context) error {
		// Safe unlock: delete only if we still own the lock.
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return l.client.Eval(ctx, script, []string{lockKey}, val).Err()
	}, nil
}
