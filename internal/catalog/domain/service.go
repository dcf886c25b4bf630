package domain

import (
	"context"
	"errors"
)

type Service interface {
	ListPublic(ctx context.Context) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, req ProductInput) (*Product, error)
	Update(ctx context.Context, req ProductInput) (*Product, error)
	Delete(ctx context.Context, id string) error
	Seed(ctx context.Context) (bool, error)
}

// Authorizer checks the shared admin secret.
type Authorizer interface {
	Authorize(token string) error
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInvalidType         = errors.New("invalid_type")
	ErrInvalidDeliveryType = errors.New("invalid_delivery_type")
	ErrInvalidFlag         = errors.New("invalid_flag")
	ErrNotFound            = errors.New("product_not_found")
	ErrConflict            = errors.New("product_already_exists")
	ErrUnauthorized        = errors.New("unauthorized")
)
