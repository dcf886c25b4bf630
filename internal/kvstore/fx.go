package kvstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tsfshop/storefront/internal/clock"
	"github.com/tsfshop/storefront/internal/config"
	obslogger "github.com/tsfshop/storefront/internal/observability/logger"
	"github.com/tsfshop/storefront/pkg/db"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("kvstore",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

// New opens the store selected by STORE_DRIVER and closes it on shutdown.
func New(p Params) (Store, error) {
	store, err := Open(p.Config, p.Log)
	if err != nil {
		return nil, err
	}

	log := p.Log.Named("kvstore")
	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := store.Ping(ctx); err != nil {
					log.Warn("store not reachable at startup", zap.Error(err))
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return store.Close()
			},
		})
	}
	return store, nil
}

// Open builds a store without lifecycle hooks, used by one-shot CLI commands.
func Open(cfg config.Config, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := Options{KeyPrefix: cfg.Store.KeyPrefix, Timeout: cfg.OutboundTimeout}

	switch strings.ToLower(strings.TrimSpace(cfg.Store.Driver)) {
	case DriverRedis, "":
		client, err := newRedisClient(cfg.Store)
		if err != nil {
			return nil, err
		}
		log.Info("kvstore using redis", zap.String("key_prefix", opts.KeyPrefix))
		return NewRedisStore(client, opts), nil
	case DriverSQL:
		gdb, err := openGorm(cfg)
		if err != nil {
			return nil, err
		}
		store := NewSQLStore(gdb, opts, clock.New())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.OutboundTimeout)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		log.Info("kvstore using sql", zap.String("db_type", cfg.Store.DBType), zap.String("key_prefix", opts.KeyPrefix))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func newRedisClient(cfg config.StoreConfig) (*redis.Client, error) {
	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}), nil
}

func openGorm(cfg config.Config) (*gorm.DB, error) {
	store := cfg.Store
	dbCfg := db.Config{
		Type:            store.DBType,
		Host:            store.DBHost,
		Port:            store.DBPort,
		Name:            store.DBName,
		User:            store.DBUser,
		Password:        store.DBPassword,
		SSLMode:         store.DBSSLMode,
		Path:            store.DBPath,
		MaxIdleConn:     store.DBMaxIdleConn,
		MaxOpenConn:     store.DBMaxOpenConn,
		ConnMaxLifetime: store.DBConnMaxLifetime,
	}
	dialector, err := db.Dialect(dbCfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := gdb.Use(otelgorm.NewPlugin(otelgorm.WithDBName(store.DBName))); err != nil {
		return nil, err
	}
	if err := gdb.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          store.DBName,
		RefreshInterval: 15,
	})); err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbCfg.ConnMaxLifetime) * time.Second)

	return gdb, nil
}
