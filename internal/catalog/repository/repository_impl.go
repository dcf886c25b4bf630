package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsfshop/storefront/internal/catalog/domain"
	"github.com/tsfshop/storefront/internal/kvstore"
	"go.uber.org/zap"
)

// ProductsKey holds the whole catalog as one JSON array.
const ProductsKey = "products"

type repo struct {
	store kvstore.Store
	log   *zap.Logger
}

func Provide(store kvstore.Store, log *zap.Logger) domain.Repository {
	return &repo{store: store, log: log.Named("catalog.repository")}
}

func (r *repo) Get(ctx context.Context) ([]domain.Product, error) {
	var raw json.RawMessage
	found, err := r.store.Get(ctx, ProductsKey, &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Product{}, nil
	}
	return r.decode(raw)
}

func (r *repo) Put(ctx context.Context, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}
	return r.store.Set(ctx, ProductsKey, products)
}

func (r *repo) Mutate(ctx context.Context, fn domain.MutateFunc) error {
	return r.store.Update(ctx, ProductsKey, func(raw []byte, found bool) ([]byte, error) {
		current := []domain.Product{}
		if found {
			decoded, err := r.decode(raw)
			if err != nil {
				return nil, err
			}
			current = decoded
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []domain.Product{}
		}
		return json.Marshal(next)
	})
}

func (r *repo) SeedIfAbsent(ctx context.Context, products []domain.Product) (bool, error) {
	return r.store.SetNX(ctx, ProductsKey, products)
}

// decode refuses a document it cannot read so a write never replaces it.
func (r *repo) decode(raw []byte) ([]domain.Product, error) {
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		r.log.Error("stored catalog does not decode", zap.Error(err))
		return nil, fmt.Errorf("%w: products document: %v", kvstore.ErrUnavailable, err)
	}
	if products == nil {
		return []domain.Product{}, nil
	}
	return products, nil
}
