package domain

import (
	"context"
	"errors"
	"io"
)

type Service interface {
	Lookup(ctx context.Context, token string) (*Record, error)
	Issue(ctx context.Context, req IssueRequest) (*Record, error)
	Receipt(ctx context.Context, token string) (io.Reader, error)
	AccessURL(token string) string
}

var (
	ErrInvalidToken    = errors.New("invalid_token")
	ErrNotFound        = errors.New("access_not_found")
	ErrTokenCollisions = errors.New("access_token_collisions")
)
