package domain

import "context"

// MutateFunc receives the current product list and returns the list to persist.
type MutateFunc func(products []Product) ([]Product, error)

type Repository interface {
	Get(ctx context.Context) ([]Product, error)
	Put(ctx context.Context, products []Product) error
	Mutate(ctx context.Context, fn MutateFunc) error
	SeedIfAbsent(ctx context.Context, products []Product) (bool, error)
}
