package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/tsfshop/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyEndpointClient = "ratelimit:%s:%s"

// Limiter throttles public endpoints per client address. A nil Limiter allows
// everything.
type Limiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

// New returns nil when RATE_LIMIT_ENABLED is off.
func New(p Params) (*Limiter, error) {
	cfg := p.Config.RateLimit
	if !cfg.Enabled {
		return nil, nil
	}
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, fmt.Errorf("rate limit redis addr is required")
	}
	if cfg.Rate <= 0 || cfg.Burst <= 0 {
		return nil, fmt.Errorf("rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}
	p.Log.Named("ratelimit").Info("rate limiting enabled",
		zap.Float64("rate", cfg.Rate),
		zap.Int("burst", cfg.Burst),
	)
	return NewLimiter(client, cfg.Rate, cfg.Burst), nil
}

func NewLimiter(client *redis.Client, rate float64, burst int) *Limiter {
	return &Limiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow takes one token from the bucket of endpoint and client.
func (l *Limiter) Allow(ctx context.Context, endpoint, client string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyEndpointClient, strings.TrimSpace(endpoint), strings.TrimSpace(client))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
