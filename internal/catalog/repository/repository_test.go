package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsfshop/storefront/internal/catalog/domain"
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

func TestGetAbsentKeyYieldsEmptyList(t *testing.T) {
	_, repo := setupRepo(t)
	products, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestGetRejectsUndecodableDocument(t *testing.T) {
	mr, repo := setupRepo(t)
	require.NoError(t, mr.Set("tsf:products", `{"oops":true}`))

	products, err := repo.Get(context.Background())
	require.ErrorIs(t, err, kvstore.ErrUnavailable)
	assert.Nil(t, products)
}

func TestMutateLeavesUndecodableDocumentUntouched(t *testing.T) {
	mr, repo := setupRepo(t)
	stored := `[{"id":"p1","name":"A","price_cents":4900},{"id":"p2","name":"B","price_cents":49.5}]`
	require.NoError(t, mr.Set("tsf:products", stored))

	called := false
	err := repo.Mutate(context.Background(), func(p []domain.Product) ([]domain.Product, error) {
		called = true
		return append(p, domain.Product{ID: "new", Name: "New"}), nil
	})
	require.ErrorIs(t, err, kvstore.ErrUnavailable)
	assert.False(t, called)

	got, err := mr.Get("tsf:products")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestPutThenGetPreservesOrder(t *testing.T) {
	_, repo := setupRepo(t)
	ctx := context.Background()
	in := []domain.Product{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}}
	require.NoError(t, repo.Put(ctx, in))

	out, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMutateAppendsAndPropagatesErrors(t *testing.T) {
	_, repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Mutate(ctx, func(p []domain.Product) ([]domain.Product, error) {
		return append(p, domain.Product{ID: "p1", Name: "Curso X"}), nil
	}))

	err := repo.Mutate(ctx, func(p []domain.Product) ([]domain.Product, error) {
		return nil, domain.ErrConflict
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	out, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].ID)
}

func TestSeedIfAbsentWritesOnce(t *testing.T) {
	_, repo := setupRepo(t)
	ctx := context.Background()

	seeded, err := repo.SeedIfAbsent(ctx, domain.DefaultProducts())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.SeedIfAbsent(ctx, []domain.Product{{ID: "other"}})
	require.NoError(t, err)
	assert.False(t, seeded)

	out, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, out, len(domain.DefaultProducts()))
}
