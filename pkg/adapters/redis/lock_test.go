package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Exclusive(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "espalier:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("espalier:lock:run-1"))

	busy, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(busy, "run-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "second holder waits for the first")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("espalier:lock:run-1"))

	unlock2, err := locker.Lock(ctx, "run-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_UnlockIgnoresForeignToken(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "espalier:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "run-2", time.Minute)
	require.NoError(t, err)

	// Someone else took over after expiry.
	require.NoError(t, mr.Set("espalier:lock:run-2", "other"))
	require.NoError(t, unlock(ctx))

	got, err := mr.Get("espalier:lock:run-2")
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}
