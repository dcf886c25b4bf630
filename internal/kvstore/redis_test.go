package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		_, client := setupTestRedis(t)
		return NewRedisStore(client, Options{KeyPrefix: "tsf:", Timeout: time.Second})
	})
}

func TestRedisStoreAppliesKeyPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, Options{KeyPrefix: "tsf:"})

	require.NoError(t, s.Set(context.Background(), "products", []string{}))
	assert.True(t, mr.Exists("tsf:products"))
	assert.False(t, mr.Exists("products"))
}

func TestRedisStoreLockExpires(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, Options{KeyPrefix: "tsf:"})
	ctx := context.Background()

	_, ok, err := s.TryLock(ctx, "lock:a", 60*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(61 * time.Second)

	_, ok, err = s.TryLock(ctx, "lock:a", 60*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, Options{KeyPrefix: "tsf:", Timeout: 200 * time.Millisecond})
	mr.Close()

	_, err := s.Get(context.Background(), "products", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
