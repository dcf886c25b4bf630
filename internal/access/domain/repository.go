package domain

import "context"

type Repository interface {
	// Create stores rec unless its token is already taken.
	Create(ctx context.Context, rec Record) (bool, error)
	FindByToken(ctx context.Context, token string) (*Record, error)
}
