package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns per conversation handle across
// replicas. Unlike a blocking mutex, acquisition is a single attempt: the
// external runtime rejects concurrent runs on one handle outright, so a
// held lock means the caller should give up with domain.ErrConversationBusy
// rather than wait.
type DistributedLocker interface {
	// TryLock attempts to acquire the lock for key once. On success it
	// returns an UnlockFunc that MUST be called to release the lock; the TTL
	// bounds how long an abandoned lock can block the handle.
	// Returns domain.ErrConversationBusy if the lock is already held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
