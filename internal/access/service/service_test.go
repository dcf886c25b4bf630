package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsfshop/storefront/internal/access/domain"
	"github.com/tsfshop/storefront/internal/access/repository"
	"github.com/tsfshop/storefront/internal/clock"
	"github.com/tsfshop/storefront/internal/config"
	"github.com/tsfshop/storefront/internal/kvstore"
	"github.com/tsfshop/storefront/internal/providers/pdf"
	"go.uber.org/zap"
)

var issuedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := kvstore.NewRedisStore(client, kvstore.Options{KeyPrefix: "tsf:", Timeout: time.Second})
	svc := New(Params{
		Log:    zap.NewNop(),
		Config: config.Config{AccessBaseURL: "https://shop.example/access.html"},
		Repo:   repository.Provide(store, zap.NewNop()),
		PDF:    pdf.New(),
		Clock:  clock.NewFakeClock(issuedAt),
	})
	return svc.(*Service)
}

func TestIssueThenLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Issue(ctx, domain.IssueRequest{
		ProductID:    "curso-x",
		ProductName:  "Curso X",
		Email:        "buyer@example.com",
		DeliveryType: "generated_access",
		SessionID:    "cs_1",
	})
	require.NoError(t, err)
	assert.Len(t, rec.Token, 43)
	assert.Equal(t, issuedAt, rec.CreatedAt)

	got, err := svc.Lookup(ctx, " "+rec.Token+" ")
	require.NoError(t, err)
	assert.Equal(t, *rec, *got)
}

func TestIssueGeneratesDistinctTokens(t *testing.T) {
	svc := newTestService(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		rec, err := svc.Issue(context.Background(), domain.IssueRequest{ProductName: "Curso X"})
		require.NoError(t, err)
		require.False(t, seen[rec.Token], "token reused")
		seen[rec.Token] = true
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tokens := []string{"dup", "dup", "fresh"}
	svc.newToken = func() (string, error) {
		next := tokens[0]
		tokens = tokens[1:]
		return next, nil
	}

	first, err := svc.Issue(ctx, domain.IssueRequest{ProductName: "A"})
	require.NoError(t, err)
	assert.Equal(t, "dup", first.Token)

	second, err := svc.Issue(ctx, domain.IssueRequest{ProductName: "B"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", second.Token)

	kept, err := svc.Lookup(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "A", kept.ProductName)
}

func TestIssueGivesUpAfterRepeatedCollisions(t *testing.T) {
	svc := newTestService(t)
	svc.newToken = func() (string, error) { return "same", nil }

	_, err := svc.Issue(context.Background(), domain.IssueRequest{})
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), domain.IssueRequest{})
	assert.ErrorIs(t, err, domain.ErrTokenCollisions)
}

func TestLookupErrors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.Lookup(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReceipt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rec, err := svc.Issue(ctx, domain.IssueRequest{
		ProductName: "Curso X",
		Email:       "buyer@example.com",
		PriceCents:  4900,
		Currency:    "usd",
	})
	require.NoError(t, err)

	r, err := svc.Receipt(ctx, rec.Token)
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(raw[:4]))

	_, err = svc.Receipt(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccessURL(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, "https://shop.example/access.html?token=a%2Bb", svc.AccessURL("a+b"))

	svc.baseURL = "https://shop.example/access?lang=es"
	assert.Equal(t, "https://shop.example/access?lang=es&token=t", svc.AccessURL("t"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "USD 49.00", FormatAmount(4900, "usd"))
	assert.Equal(t, "0.05", FormatAmount(5, ""))
	assert.Equal(t, "", FormatAmount(0, "USD"))
}
