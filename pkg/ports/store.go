package ports

import (
	"context"

	"github.com/bufetemejia/counsel/pkg/domain"
)

// ChangeKind classifies a conversation store mutation.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
)

// Change is one store mutation, published to watchers so list views can
// refetch without polling.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	OwnerID string     `json:"owner_id"`
	Handle  string     `json:"handle"`
}

// ConversationStore persists conversation metadata keyed by owner and handle.
type ConversationStore interface {
	// Ensure inserts a record for (ownerID, handle) if none exists and
	// returns it. If a record already exists it is returned unchanged, so
	// the call is idempotent. The title is derived from seedTitle only on
	// insert.
	Ensure(ctx context.Context, ownerID, handle, seedTitle string) (domain.ConversationRecord, error)

	// Touch sets the record's UpdatedAt to the store's current wall-clock
	// time. Returns domain.ErrConversationNotFound for unknown handles.
	Touch(ctx context.Context, handle string) error

	// Get returns the record for a handle.
	Get(ctx context.Context, handle string) (domain.ConversationRecord, error)

	// List returns the owner's records ordered by UpdatedAt descending.
	List(ctx context.Context, ownerID string) ([]domain.ConversationRecord, error)
}

// WatchableStore is implemented by stores that can notify observers about
// inserts and updates. The channel closes when ctx is cancelled.
type WatchableStore interface {
	Watch(ctx context.Context) (<-chan Change, error)
}
