package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// runStoreSuite exercises the behaviour every driver must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		var d doc
		found, err := s.Get(context.Background(), "missing", &d)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "products", []doc{{Name: "a"}, {Name: "b"}}))
		require.NoError(t, s.Set(ctx, "products", []doc{{Name: "c"}}))

		var got []doc
		found, err := s.Get(ctx, "products", &got)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []doc{{Name: "c"}}, got)
	})

	t.Run("setnx keeps first writer", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		stored, err := s.SetNX(ctx, "access_session:cs_1", doc{Name: "first"})
		require.NoError(t, err)
		assert.True(t, stored)

		stored, err = s.SetNX(ctx, "access_session:cs_1", doc{Name: "second"})
		require.NoError(t, err)
		assert.False(t, stored)

		var got doc
		_, err = s.Get(ctx, "access_session:cs_1", &got)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Name)
	})

	t.Run("update creates and modifies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		inc := func(raw []byte, found bool) ([]byte, error) {
			var d doc
			if found {
				if err := json.Unmarshal(raw, &d); err != nil {
					return nil, err
				}
			}
			d.Count++
			return json.Marshal(d)
		}
		require.NoError(t, s.Update(ctx, "counter", inc))
		require.NoError(t, s.Update(ctx, "counter", inc))

		var got doc
		_, err := s.Get(ctx, "counter", &got)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Count)
	})

	t.Run("update passes fn error through", func(t *testing.T) {
		s := newStore(t)
		boom := errors.New("boom")
		err := s.Update(context.Background(), "k", func([]byte, bool) ([]byte, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("concurrent updates lose nothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "counter", doc{}))

		const workers = 4
		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, "counter", func(raw []byte, _ bool) ([]byte, error) {
					var d doc
					if err := json.Unmarshal(raw, &d); err != nil {
						return nil, err
					}
					d.Count++
					return json.Marshal(d)
				})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, ErrConflict)
				}
			}()
		}
		wg.Wait()

		var got doc
		_, err := s.Get(ctx, "counter", &got)
		require.NoError(t, err)
		assert.Equal(t, succeeded, got.Count)
	})

	t.Run("lock is exclusive until unlocked", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		token, ok, err := s.TryLock(ctx, "lock:access_session:cs_1", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		require.NotEmpty(t, token)

		_, ok, err = s.TryLock(ctx, "lock:access_session:cs_1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Unlock(ctx, "lock:access_session:cs_1", "someone-else"))
		_, ok, err = s.TryLock(ctx, "lock:access_session:cs_1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Unlock(ctx, "lock:access_session:cs_1", token))
		_, ok, err = s.TryLock(ctx, "lock:access_session:cs_1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), " ", nil)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}
