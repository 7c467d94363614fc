// Package memory provides in-process implementations of the conversation
// store and the per-handle locker. Used by tests and single-node setups
// where Redis would be overkill.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/ports"
	"github.com/google/uuid"
)

// Store implements ports.ConversationStore in memory.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	records  map[string]domain.ConversationRecord // keyed by handle
	watchers []chan ports.Change

	// now is the clock used for timestamps. Overridable in tests.
	now func() time.Time
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]domain.ConversationRecord),
		now:     time.Now,
	}
}

// Ensure inserts a record for (ownerID, handle) if none exists.
func (s *Store) Ensure(ctx context.Context, ownerID, handle, seedTitle string) (domain.ConversationRecord, error) {
	s.mu.Lock()
	if rec, ok := s.records[handle]; ok {
		s.mu.Unlock()
		return rec, nil
	}

	now := s.now()
	rec := domain.ConversationRecord{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     domain.DeriveTitle(seedTitle),
		Handle:    handle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[handle] = rec
	s.mu.Unlock()

	s.publish(ports.Change{Kind: ports.ChangeInsert, OwnerID: ownerID, Handle: handle})
	return rec, nil
}

// Touch sets UpdatedAt to the current wall-clock time.
func (s *Store) Touch(ctx context.Context, handle string) error {
	s.mu.Lock()
	rec, ok := s.records[handle]
	if !ok {
		s.mu.Unlock()
		return domain.ErrConversationNotFound
	}
	rec.UpdatedAt = s.now()
	s.records[handle] = rec
	s.mu.Unlock()

	s.publish(ports.Change{Kind: ports.ChangeUpdate, OwnerID: rec.OwnerID, Handle: handle})
	return nil
}

// Get returns the record for a handle.
func (s *Store) Get(ctx context.Context, handle string) (domain.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[handle]
	if !ok {
		return domain.ConversationRecord{}, domain.ErrConversationNotFound
	}
	return rec, nil
}

// List returns the owner's records, most recently updated first.
func (s *Store) List(ctx context.Context, ownerID string) ([]domain.ConversationRecord, error) {
	s.mu.RLock()
	records := make([]domain.ConversationRecord, 0)
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			records = append(records, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

// Watch returns a channel receiving store changes until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan ports.Change, error) {
	ch := make(chan ports.Change, 16)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *Store) publish(change ports.Change) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.watchers {
		select {
		case w <- change:
		default:
			// Slow watcher; drop rather than stall writes.
		}
	}
}
