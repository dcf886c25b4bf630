package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsfshop/storefront/internal/fulfillment/domain"
	"github.com/tsfshop/storefront/internal/kvstore"
	"go.uber.org/zap"
)

func setupRepo(t *testing.T) (*miniredis.Miniredis, domain.Repository) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := kvstore.NewRedisStore(client, kvstore.Options{KeyPrefix: "tsf:", Timeout: time.Second})
	return mr, Provide(store, zap.NewNop())
}

func TestFindMarkerAbsent(t *testing.T) {
	_, repo := setupRepo(t)
	marker, err := repo.FindMarker(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Nil(t, marker)
}

func TestCommitMarkerFirstWriterWins(t *testing.T) {
	mr, repo := setupRepo(t)
	ctx := context.Background()

	first := domain.Marker{SessionID: "cs_1", Email: "a@b.com", AccessLinks: []domain.AccessLink{{Token: "t1"}}}
	got, stored, err := repo.CommitMarker(ctx, first)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, "t1", got.AccessLinks[0].Token)
	assert.True(t, mr.Exists("tsf:access_session:cs_1"))

	second := domain.Marker{SessionID: "cs_1", Email: "a@b.com", AccessLinks: []domain.AccessLink{{Token: "t2"}}}
	got, stored, err = repo.CommitMarker(ctx, second)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Equal(t, "t1", got.AccessLinks[0].Token)
}

func TestLockIsExclusive(t *testing.T) {
	mr, repo := setupRepo(t)
	ctx := context.Background()

	token, ok, err := repo.Lock(ctx, "cs_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("tsf:lock:access_session:cs_1"))

	_, ok, err = repo.Lock(ctx, "cs_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Unlock(ctx, "cs_1", token))
	_, ok, err = repo.Lock(ctx, "cs_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
