package domain

import (
	"context"
	"time"
)

type Repository interface {
	// FindMarker returns nil when the session was never fulfilled.
	FindMarker(ctx context.Context, sessionID string) (*Marker, error)
	// CommitMarker writes the marker unless one exists. It returns the marker
	// that ended up stored and whether it is the one passed in.
	CommitMarker(ctx context.Context, marker Marker) (*Marker, bool, error)
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, sessionID, token string) error
}
