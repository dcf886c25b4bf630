package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tsfshop/storefront/internal/catalog/domain"
	"github.com/tsfshop/storefront/internal/catalog/repository"
	"github.com/tsfshop/storefront/internal/config"
	"github.com/tsfshop/storefront/internal/kvstore"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, storefront *config.StorefrontHolder) domain.Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	store := kvstore.NewRedisStore(client, kvstore.Options{KeyPrefix: "tsf:", Timeout: time.Second})
	return New(Params{
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(store, zap.NewNop()),
		Storefront: storefront,
	})
}

func input(t *testing.T, raw string) domain.ProductInput {
	t.Helper()
	var in domain.ProductInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

func TestCreateRequiresNameAndPrice(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, input(t, `{"price_cents":100}`))
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, input(t, `{"name":"  "}`))
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, input(t, `{"name":"Curso X"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, input(t, `{"name":"Curso X","price_cents":0}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	products, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateAppliesDefaultsAndGeneratesID(t *testing.T) {
	svc := newTestService(t, nil)
	p, err := svc.Create(context.Background(), input(t, `{"name":"Formación Inicial TSF","price_cents":"4900"}`))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^formacion-inicial-tsf-[0-9a-z]+$`), p.ID)
	assert.Equal(t, domain.ProductTypeOther, p.Type)
	assert.Equal(t, domain.DeliveryGeneratedAccess, p.DeliveryType)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, int64(4900), p.PriceCents)
	require.NotNil(t, p.IsActive)
	require.NotNil(t, p.IsFeatured)
	assert.True(t, *p.IsActive)
	assert.True(t, *p.IsFeatured)
}

func TestCreateGeneratedIDsAreUnique(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	a, err := svc.Create(ctx, input(t, `{"name":"Bot","price_cents":100}`))
	require.NoError(t, err)
	b, err := svc.Create(ctx, input(t, `{"name":"Bot","price_cents":100}`))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateNormalizesFlags(t *testing.T) {
	svc := newTestService(t, nil)
	p, err := svc.Create(context.Background(), input(t, `{"name":"Hidden","price_cents":100,"is_active":"0","is_featured":0}`))
	require.NoError(t, err)
	assert.False(t, *p.IsActive)
	assert.False(t, *p.IsFeatured)
}

func TestCreateRejectsInvalidEnums(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, input(t, `{"name":"A","price_cents":1,"type":"vehicle"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = svc.Create(ctx, input(t, `{"name":"A","price_cents":1,"delivery_type":"carrier_pigeon"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidDeliveryType)
}

func TestCreateDuplicateIDConflicts(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, input(t, `{"id":"p1","name":"Curso X","price_cents":4900}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input(t, `{"id":"p1","name":"Curso Y","price_cents":100}`))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAdminRoundTripPreservesFields(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, input(t, `{
		"id":"p1","name":"Curso X","type":"course","price_cents":4900,
		"delivery_type":"drive_link","delivery_value":"https://x/drive",
		"instructions":"Abrí el link","pdf_url":"https://x/guide.pdf",
		"email_subject":"Hola {{name}}","email_body":"<p>{{product}}</p>"
	}`))
	require.NoError(t, err)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, *created, listed[0])

	updated, err := svc.Update(ctx, input(t, `{"id":"p1","price_cents":5900}`))
	require.NoError(t, err)

	want := *created
	want.PriceCents = 5900
	assert.Equal(t, want, *updated)

	listed, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, listed[0])
}

func TestUpdateErrors(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Update(ctx, input(t, `{"price_cents":1}`))
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Update(ctx, input(t, `{"id":"missing","price_cents":1}`))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Create(ctx, input(t, `{"id":"p1","name":"Curso X","price_cents":4900}`))
	require.NoError(t, err)
	_, err = svc.Update(ctx, input(t, `{"id":"p1","name":""}`))
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestDelete(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, ""), domain.ErrInvalidID)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), domain.ErrNotFound)

	_, err := svc.Create(ctx, input(t, `{"id":"p1","name":"A","price_cents":1}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input(t, `{"id":"p2","name":"B","price_cents":1}`))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "p1"))
	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "p2", listed[0].ID)
}

func TestListPublicFiltersInactiveOnly(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for _, raw := range []string{
		`{"id":"on","name":"On","price_cents":1,"is_active":true,"is_featured":false}`,
		`{"id":"off","name":"Off","price_cents":1,"is_active":false}`,
		`{"id":"default","name":"Default","price_cents":1}`,
	} {
		_, err := svc.Create(ctx, input(t, raw))
		require.NoError(t, err)
	}

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, p := range public {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"on", "default"}, ids)
}

func TestConcurrentCreatesAreAllKept(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, input(t, `{"name":"Bot","price_cents":100}`))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, kvstore.ErrConflict)
	}
	listed, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, ok)
}

func TestSeedUsesDefaultsOnce(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	written, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, written)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, len(domain.DefaultProducts()))
}

func TestSeedFromStorefrontConfig(t *testing.T) {
	sf := config.DefaultStorefront()
	sf.Catalog.Products = []map[string]any{
		{"id": "p1", "name": "Curso X", "price_cents": 4900, "delivery_type": "drive_link", "delivery_value": "https://x/drive"},
	}
	svc := newTestService(t, config.StaticStorefront(sf))

	written, err := svc.Seed(context.Background())
	require.NoError(t, err)
	require.True(t, written)

	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "p1", listed[0].ID)
	assert.Equal(t, domain.DeliveryDriveLink, listed[0].DeliveryType)
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Get(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func (m *mockRepo) Put(ctx context.Context, products []domain.Product) error {
	return m.Called(ctx, products).Error(0)
}

func (m *mockRepo) Mutate(ctx context.Context, fn domain.MutateFunc) error {
	return m.Called(ctx, fn).Error(0)
}

func (m *mockRepo) SeedIfAbsent(ctx context.Context, products []domain.Product) (bool, error) {
	args := m.Called(ctx, products)
	return args.Bool(0), args.Error(1)
}

func TestStoreFailuresPropagate(t *testing.T) {
	repo := &mockRepo{}
	unavailable := errors.Join(kvstore.ErrUnavailable, errors.New("dial tcp: refused"))
	repo.On("Get", mock.Anything).Return(nil, unavailable)
	repo.On("Mutate", mock.Anything, mock.Anything).Return(unavailable)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := New(Params{Log: zap.NewNop(), GenID: node, Repo: repo})

	_, err = svc.ListPublic(context.Background())
	assert.ErrorIs(t, err, kvstore.ErrUnavailable)

	_, err = svc.Create(context.Background(), input(t, `{"name":"A","price_cents":1}`))
	assert.ErrorIs(t, err, kvstore.ErrUnavailable)
	repo.AssertExpectations(t)
}
