package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tsfshop/storefront/internal/fulfillment/domain"
	"github.com/tsfshop/storefront/internal/kvstore"
	"go.uber.org/zap"
)

const (
	markerPrefix = "access_session:"
	lockPrefix   = "lock:access_session:"
)

type repo struct {
	store kvstore.Store
	log   *zap.Logger
}

func Provide(store kvstore.Store, log *zap.Logger) domain.Repository {
	return &repo{store: store, log: log.Named("fulfillment.repository")}
}

func MarkerKey(sessionID string) string { return markerPrefix + sessionID }

func LockKey(sessionID string) string { return lockPrefix + sessionID }

func (r *repo) FindMarker(ctx context.Context, sessionID string) (*domain.Marker, error) {
	var marker domain.Marker
	found, err := r.store.Get(ctx, MarkerKey(sessionID), &marker)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &marker, nil
}

func (r *repo) CommitMarker(ctx context.Context, marker domain.Marker) (*domain.Marker, bool, error) {
	stored, err := r.store.SetNX(ctx, MarkerKey(marker.SessionID), marker)
	if err != nil {
		return nil, false, err
	}
	if stored {
		return &marker, true, nil
	}

	existing, err := r.FindMarker(ctx, marker.SessionID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("fulfillment: marker vanished after failed commit")
	}
	return existing, false, nil
}

func (r *repo) Lock(ctx context.Context, sessionID string, ttl time.Duration) (string, bool, error) {
	return r.store.TryLock(ctx, LockKey(sessionID), ttl)
}

func (r *repo) Unlock(ctx context.Context, sessionID, token string) error {
	return r.store.Unlock(ctx, LockKey(sessionID), token)
}
