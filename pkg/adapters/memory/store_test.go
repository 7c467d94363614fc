package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/bufetemejia/counsel/pkg/adapters/memory"
	"github.com/bufetemejia/counsel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunConversationStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Watch(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Watch(ctx)
	require.NoError(t, err)

	_, err = store.Ensure(ctx, "owner-1", "thread-1", "hello")
	require.NoError(t, err)

	select {
	case change := <-changes:
		assert.Equal(t, ports.ChangeInsert, change.Kind)
		assert.Equal(t, "thread-1", change.Handle)
		assert.Equal(t, "owner-1", change.OwnerID)
	case <-time.After(time.Second):
		t.Fatal("no insert notification received")
	}

	require.NoError(t, store.Touch(ctx, "thread-1"))
	select {
	case change := <-changes:
		assert.Equal(t, ports.ChangeUpdate, change.Kind)
	case <-time.After(time.Second):
		t.Fatal("no update notification received")
	}
}

func TestMemoryLocker_Busy(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, "thread-1", 30*time.Second)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "thread-1", 30*time.Second)
	assert.Error(t, err)

	// A different handle is unaffected.
	other, err := locker.TryLock(ctx, "thread-2", 30*time.Second)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	unlock2, err := locker.TryLock(ctx, "thread-1", 30*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}
