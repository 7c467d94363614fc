package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/bufetemejia/counsel/internal/logging"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can keep a handle busy.
// Generous relative to the poll timeout so a healthy turn never loses its
// lock mid-flight.
const DefaultLockTTL = 5 * time.Minute

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Guard coordinates turn execution per conversation handle.
// It uses reference counting to garbage collect unused lock entries.
type Guard struct {
	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional cross-replica locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Guard.
type Option func(*Guard)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(g *Guard) {
		g.locker = locker
	}
}

// WithLockTTL overrides the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		g.lockTTL = ttl
	}
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// NewGuard creates a per-handle turn guard.
func NewGuard(opts ...Option) *Guard {
	g := &Guard{
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST call release(handle) when done with the entry.
func (g *Guard) acquire(handle string) *lockEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[handle]
	if !exists {
		entry = &lockEntry{}
		g.locks[handle] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (g *Guard) release(handle string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[handle]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(g.locks, handle)
	}
}

// Run executes fn while holding the handle's turn lock. If another turn is
// in flight for the same handle, either here or on another replica, it
// returns domain.ErrConversationBusy without waiting.
func (g *Guard) Run(ctx context.Context, handle string, fn func(context.Context) error) error {
	entry := g.acquire(handle)
	if !entry.mu.TryLock() {
		g.release(handle)
		return fmt.Errorf("%w: handle %s", domain.ErrConversationBusy, handle)
	}
	defer func() {
		entry.mu.Unlock()
		g.release(handle)
	}()

	if g.locker != nil {
		unlock, err := g.locker.TryLock(ctx, handle, g.lockTTL)
		if err != nil {
			return fmt.Errorf("acquiring turn lock for %s: %w", handle, err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				g.logger.Warn("Failed to release turn lock (will expire via TTL)",
					"handle", handle,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
