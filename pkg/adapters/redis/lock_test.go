package redis_test

import (
	"context"
	"testing"
	"time"

	redisadapter "github.com/bufetemejia/counsel/pkg/adapters/redis"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_TryLock(t *testing.T) {
	locker := redisadapter.NewLocker(newTestClient(t), "")
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, "thread-1", 30*time.Second)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "thread-1", 30*time.Second)
	assert.ErrorIs(t, err, domain.ErrConversationBusy)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.TryLock(ctx, "thread-1", 30*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}
