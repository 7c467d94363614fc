package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/ports"
)

// Locker implements ports.DistributedLocker for a single process.
// Locks never expire here; the TTL only matters for shared backends where a
// crashed holder must not block the handle forever.
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocker creates a new in-process locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]bool)}
}

// TryLock acquires the key or fails immediately with ErrConversationBusy.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return nil, domain.ErrConversationBusy
	}
	l.held[key] = true

	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}
