package ports

import (
	"context"
	"testing"
	"time"

	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConversationStoreContract runs a suite of tests verifying that a
// ConversationStore implementation adheres to the interface contract.
// Adapter test files call this against their concrete store.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	stamp := time.Now().Format("20060102150405.000")
	owner := "owner-" + stamp
	handle := "thread-" + stamp

	t.Run("Ensure inserts with derived title", func(t *testing.T) {
		seed := "What does Article 12 say about trademarks in El Salvador, and how is it applied?"
		rec, err := store.Ensure(ctx, owner, handle, seed)
		require.NoError(t, err)

		assert.Equal(t, owner, rec.OwnerID)
		assert.Equal(t, handle, rec.Handle)
		assert.Equal(t, domain.DeriveTitle(seed), rec.Title)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.False(t, rec.UpdatedAt.Before(rec.CreatedAt))
	})

	t.Run("Ensure is idempotent", func(t *testing.T) {
		first, err := store.Get(ctx, handle)
		require.NoError(t, err)

		again, err := store.Ensure(ctx, owner, handle, "a completely different seed")
		require.NoError(t, err)

		assert.Equal(t, first.Title, again.Title, "existing record must be returned unchanged")
		assert.Equal(t, first.CreatedAt.Unix(), again.CreatedAt.Unix())
	})

	t.Run("Get unknown handle", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-"+stamp)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Touch advances freshness monotonically", func(t *testing.T) {
		before, err := store.Get(ctx, handle)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, store.Touch(ctx, handle))

		after, err := store.Get(ctx, handle)
		require.NoError(t, err)
		assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
	})

	t.Run("Touch unknown handle", func(t *testing.T) {
		err := store.Touch(ctx, "missing-"+stamp)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("List orders by recency and isolates owners", func(t *testing.T) {
		other := handle + "-b"
		_, err := store.Ensure(ctx, owner, other, "second conversation")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, store.Touch(ctx, handle))

		records, err := store.List(ctx, owner)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, handle, records[0].Handle, "most recently touched first")
		assert.Equal(t, other, records[1].Handle)

		empty, err := store.List(ctx, "stranger-"+stamp)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
