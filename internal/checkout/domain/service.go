package domain

import "context"

type Service interface {
	CreateSession(ctx context.Context, req Request) (*Result, error)
	CreatePreference(ctx context.Context, req Request) (*Result, error)
}
