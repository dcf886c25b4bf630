package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisStore keeps each key as a JSON string value.
type RedisStore struct {
	client *redis.Client
	opts   Options
	unlock *redis.Script
}

func NewRedisStore(client *redis.Client, opts Options) *RedisStore {
	return &RedisStore{
		client: client,
		opts:   opts,
		unlock: redis.NewScript(lockReleaseScript),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	k, err := s.opts.key(key)
	if err != nil {
		return false, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	raw, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("get", err)
	}
	return true, decode(raw, dest)
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
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

	if err := s.client.Set(ctx, k, raw, 0).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (s *RedisStore) SetNX(ctx context.Context, key string, value any) (bool, error) {
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

	stored, err := s.client.SetNX(ctx, k, raw, 0).Result()
	if err != nil {
		return false, unavailable("setnx", err)
	}
	return stored, nil
}

// Update runs fn inside WATCH/MULTI and retries when the key changed underneath.
func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	k, err := s.opts.key(key)
	if err != nil {
		return err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	var fnErr error
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			found = false
			raw = nil
		} else if err != nil {
			return err
		}

		next, err := fn(raw, found)
		if err != nil {
			fnErr = err
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		fnErr = nil
		err := s.client.Watch(ctx, txf, k)
		switch {
		case err == nil:
			return nil
		case fnErr != nil:
			return fnErr
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return unavailable("update", err)
		}
	}
	return ErrConflict
}

func (s *RedisStore) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	k, err := s.opts.key(key)
	if err != nil {
		return "", false, err
	}
	if ttl <= 0 {
		return "", false, errors.New("kvstore: lock ttl must be positive")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return "", false, unavailable("lock", err)
	}
	return token, ok, nil
}

func (s *RedisStore) Unlock(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	k, err := s.opts.key(key)
	if err != nil {
		return err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if err := s.unlock.Run(ctx, s.client, []string{k}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return unavailable("unlock", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
