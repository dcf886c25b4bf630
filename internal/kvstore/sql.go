package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tsfshop/storefront/internal/clock"
	pkgdb "github.com/tsfshop/storefront/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type entry struct {
	Key       string         `gorm:"column:kv_key;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	Version   int64          `gorm:"column:version;not null;default:1"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (entry) TableName() string { return "kv_entries" }

type lockRow struct {
	Key       string    `gorm:"column:kv_key;primaryKey;size:255"`
	Token     string    `gorm:"column:token;size:64;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
}

func (lockRow) TableName() string { return "kv_locks" }

// SQLStore keeps documents in kv_entries and uses the version column for
// compare-and-swap. Locks are rows in kv_locks with an expiry.
type SQLStore struct {
	db    *gorm.DB
	opts  Options
	clock clock.Clock
}

func NewSQLStore(db *gorm.DB, opts Options, clk clock.Clock) *SQLStore {
	if clk == nil {
		clk = clock.New()
	}
	return &SQLStore{db: db, opts: opts, clock: clk}
}

// Migrate creates the two tables when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&entry{}, &lockRow{}); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	k, err := s.opts.key(key)
	if err != nil {
		return false, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	row, found, err := s.load(s.db.WithContext(ctx), k)
	if err != nil || !found {
		return false, err
	}
	return true, decode(row.Value, dest)
}

func (s *SQLStore) Set(ctx context.Context, key string, value any) error {
	k, err := s.opts.key(key)
	if err != nil {
		return err
	}
	raw, err := encode(value)
	if err != nil {
		return err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	now := s.clock.Now()
	row := entry{Key: k, Value: datatypes.JSON(raw), Version: 1, CreatedAt: now, UpdatedAt: now}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      datatypes.JSON(raw),
			"updated_at": now,
			"version":    gorm.Expr("kv_entries.version + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (s *SQLStore) SetNX(ctx context.Context, key string, value any) (bool, error) {
	k, err := s.opts.key(key)
	if err != nil {
		return false, err
	}
	raw, err := encode(value)
	if err != nil {
		return false, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	return s.insertIfAbsent(s.db.WithContext(ctx), k, raw)
}

func (s *SQLStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	k, err := s.opts.key(key)
	if err != nil {
		return err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		row, found, err := s.load(db, k)
		if err != nil {
			return err
		}

		var current []byte
		if found {
			current = row.Value
		}
		next, err := fn(current, found)
		if err != nil {
			return err
		}

		if !found {
			stored, err := s.insertIfAbsent(db, k, next)
			if err != nil {
				return err
			}
			if stored {
				return nil
			}
			continue
		}

		res := db.Model(&entry{}).
			Where("kv_key = ? AND version = ?", k, row.Version).
			Updates(map[string]any{
				"value":      datatypes.JSON(next),
				"version":    row.Version + 1,
				"updated_at": s.clock.Now(),
			})
		if res.Error != nil {
			return unavailable("update", res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}
	}
	return ErrConflict
}

// TryLock clears an expired holder first, then races on the primary key.
func (s *SQLStore) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	k, err := s.opts.key(key)
	if err != nil {
		return "", false, err
	}
	if ttl <= 0 {
		return "", false, errors.New("kvstore: lock ttl must be positive")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	now := s.clock.Now()
	if err := db.Where("kv_key = ? AND expires_at <= ?", k, now).Delete(&lockRow{}).Error; err != nil {
		return "", false, unavailable("lock", err)
	}

	token := uuid.NewString()
	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&lockRow{Key: k, Token: token, ExpiresAt: now.Add(ttl)})
	if pkgdb.IsDuplicateKeyErr(res.Error) {
		return "", false, nil
	}
	if res.Error != nil {
		return "", false, unavailable("lock", res.Error)
	}
	return token, res.RowsAffected == 1, nil
}

func (s *SQLStore) Unlock(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	k, err := s.opts.key(key)
	if err != nil {
		return err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Where("kv_key = ? AND token = ?", k, token).Delete(&lockRow{}).Error; err != nil {
		return unavailable("unlock", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable("ping", err)
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) load(db *gorm.DB, key string) (entry, bool, error) {
	var row entry
	err := db.Where("kv_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entry{}, false, nil
	}
	if err != nil {
		return entry{}, false, unavailable("get", err)
	}
	return row, true, nil
}

func (s *SQLStore) insertIfAbsent(db *gorm.DB, key string, raw []byte) (bool, error) {
	now := s.clock.Now()
	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry{Key: key, Value: datatypes.JSON(raw), Version: 1, CreatedAt: now, UpdatedAt: now})
	if pkgdb.IsDuplicateKeyErr(res.Error) {
		return false, nil
	}
	if res.Error != nil {
		return false, unavailable("insert", res.Error)
	}
	return res.RowsAffected == 1, nil
}

var _ Store = (*SQLStore)(nil)
