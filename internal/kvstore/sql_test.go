package kvstore

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsfshop/storefront/internal/clock"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLTestStore(t *testing.T, clk clock.Clock) *SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewSQLStore(db, Options{KeyPrefix: "tsf:", Timeout: 5 * time.Second}, clk)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return newSQLTestStore(t, nil)
	})
}

func TestSQLStoreLockExpires(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newSQLTestStore(t, clk)
	ctx := context.Background()

	_, ok, err := s.TryLock(ctx, "lock:a", 60*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	clk.Advance(30 * time.Second)
	_, ok, err = s.TryLock(ctx, "lock:a", 60*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	clk.Advance(31 * time.Second)
	_, ok, err = s.TryLock(ctx, "lock:a", 60*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLStoreVersionIncrements(t *testing.T) {
	s := newSQLTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "products", []string{"a"}))
	require.NoError(t, s.Set(ctx, "products", []string{"b"}))

	row, found, err := s.load(s.db.WithContext(ctx), "tsf:products")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2), row.Version)
}
