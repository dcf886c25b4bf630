package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrConflict is returned when an optimistic update keeps losing races.
	ErrConflict = errors.New("kvstore: write conflict")
	// ErrUnavailable wraps every failure talking to the backing store.
	ErrUnavailable = errors.New("kvstore: unavailable")
	ErrInvalidKey  = errors.New("kvstore: invalid key")
)

const (
	DriverRedis = "redis"
	DriverSQL   = "sql"

	maxUpdateAttempts = 5
	defaultTimeout    = 10 * time.Second
)

// UpdateFunc receives the current raw JSON value and returns the value to store.
// Returning an error aborts the update and the error is passed through unchanged.
type UpdateFunc func(raw []byte, found bool) ([]byte, error)

// Store is a JSON document store with compare-and-swap updates and TTL locks.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	SetNX(ctx context.Context, key string, value any) (bool, error)
	Update(ctx context.Context, key string, fn UpdateFunc) error
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
	Ping(ctx context.Context) error
	Close() error
}

// Options shared by all drivers.
type Options struct {
	KeyPrefix string
	Timeout   time.Duration
}

func (o Options) key(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	return o.KeyPrefix + key, nil
}

func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func encode(value any) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(value)
}

func decode(raw []byte, dest any) error {
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("kvstore: decode: %w", err)
	}
	return nil
}
