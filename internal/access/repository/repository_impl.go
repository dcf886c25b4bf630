package repository

import (
	"context"

	"github.com/tsfshop/storefront/internal/access/domain"
	"github.com/tsfshop/storefront/internal/kvstore"
	"go.uber.org/zap"
)

const keyPrefix = "access:"

type repo struct {
	store kvstore.Store
	log   *zap.Logger
}

func Provide(store kvstore.Store, log *zap.Logger) domain.Repository {
	return &repo{store: store, log: log.Named("access.repository")}
}

func Key(token string) string {
	return keyPrefix + token
}

func (r *repo) Create(ctx context.Context, rec domain.Record) (bool, error) {
	return r.store.SetNX(ctx, Key(rec.Token), rec)
}

func (r *repo) FindByToken(ctx context.Context, token string) (*domain.Record, error) {
	var rec domain.Record
	found, err := r.store.Get(ctx, Key(token), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}
