package repository

import (
	"context"
	"time"
)

// Locker provides a cross-process mutual exclusion lease
type Locker interface {
	// Acquire returns false when the lock is held elsewhere. The returned
	// release func is a no-op if the lease already expired.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// IdempotencyStore remembers responses keyed by a client-supplied key
type IdempotencyStore interface {
	// Reserve marks the key in flight; false means it is already reserved or completed
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Get returns nil, nil when no response is stored
	Get(ctx context.Context, key string) (*StoredResponse, error)

	Save(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// StoredResponse is a replayable HTTP response
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}
