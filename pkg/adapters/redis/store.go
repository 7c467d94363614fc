// Package redis implements the conversation store and the per-handle lock
// on Redis, for deployments running more than one orchestrator replica.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "counsel:"

// Store implements ports.ConversationStore using Redis.
//
// Layout: one JSON blob per record at <prefix>conv:<handle>, one ZSET per
// owner at <prefix>owner:<ownerID> scored by UpdatedAt (unix millis) so
// listing is a single ZREVRANGE, and a pub/sub channel <prefix>changes
// carrying ports.Change payloads for live list invalidation.
type Store struct {
	client *backend.Client
	prefix string
	now    func() time.Time
}

type Option func(*Store)

// WithPrefix sets the key prefix for all conversation keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewStore creates a new Redis store from an existing client.
func NewStore(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) convKey(handle string) string {
	return s.prefix + "conv:" + handle
}

func (s *Store) ownerKey(ownerID string) string {
	return s.prefix + "owner:" + ownerID
}

func (s *Store) channel() string {
	return s.prefix + "changes"
}

// Ensure inserts a record for (ownerID, handle) if none exists.
func (s *Store) Ensure(ctx context.Context, ownerID, handle, seedTitle string) (domain.ConversationRecord, error) {
	now := s.now()
	rec := domain.ConversationRecord{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     domain.DeriveTitle(seedTitle),
		Handle:    handle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return domain.ConversationRecord{}, fmt.Errorf("marshaling record: %w", err)
	}

	inserted, err := s.client.SetNX(ctx, s.convKey(handle), data, 0).Result()
	if err != nil {
		return domain.ConversationRecord{}, fmt.Errorf("%w: inserting record: %v", domain.ErrRecordStore, err)
	}
	if !inserted {
		// Record already exists; return it unchanged.
		return s.Get(ctx, handle)
	}

	if err := s.client.ZAdd(ctx, s.ownerKey(ownerID), backend.Z{
		Score:  float64(now.UnixMilli()),
		Member: handle,
	}).Err(); err != nil {
		return domain.ConversationRecord{}, fmt.Errorf("%w: indexing record: %v", domain.ErrRecordStore, err)
	}

	s.publish(ctx, ports.Change{Kind: ports.ChangeInsert, OwnerID: ownerID, Handle: handle})
	return rec, nil
}

// Touch rewrites the record with the current wall-clock UpdatedAt.
func (s *Store) Touch(ctx context.Context, handle string) error {
	rec, err := s.Get(ctx, handle)
	if err != nil {
		return err
	}

	rec.UpdatedAt = s.now()
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.convKey(handle), data, 0)
	pipe.ZAdd(ctx, s.ownerKey(rec.OwnerID), backend.Z{
		Score:  float64(rec.UpdatedAt.UnixMilli()),
		Member: handle,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: touching record: %v", domain.ErrRecordStore, err)
	}

	s.publish(ctx, ports.Change{Kind: ports.ChangeUpdate, OwnerID: rec.OwnerID, Handle: handle})
	return nil
}

// Get retrieves one record by handle.
func (s *Store) Get(ctx context.Context, handle string) (domain.ConversationRecord, error) {
	val, err := s.client.Get(ctx, s.convKey(handle)).Result()
	if err != nil {
		if err == backend.Nil {
			return domain.ConversationRecord{}, domain.ErrConversationNotFound
		}
		return domain.ConversationRecord{}, fmt.Errorf("%w: reading record: %v", domain.ErrRecordStore, err)
	}

	var rec domain.ConversationRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return domain.ConversationRecord{}, fmt.Errorf("unmarshaling record: %w", err)
	}
	return rec, nil
}

// List returns the owner's records, most recently updated first.
func (s *Store) List(ctx context.Context, ownerID string) ([]domain.ConversationRecord, error) {
	handles, err := s.client.ZRevRange(ctx, s.ownerKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: listing records: %v", domain.ErrRecordStore, err)
	}

	records := make([]domain.ConversationRecord, 0, len(handles))
	for _, handle := range handles {
		rec, err := s.Get(ctx, handle)
		if err != nil {
			if err == domain.ErrConversationNotFound {
				// Index entry outlived its record; skip.
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Watch subscribes to the change channel until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan ports.Change, error) {
	sub := s.client.Subscribe(ctx, s.channel())
	// Force the subscription to be established before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("%w: subscribing to changes: %v", domain.ErrRecordStore, err)
	}

	out := make(chan ports.Change, 16)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change ports.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Store) publish(ctx context.Context, change ports.Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	// Notification is best-effort; a failed publish must not fail the write.
	_ = s.client.Publish(ctx, s.channel(), payload).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
