package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the store
	ErrCacheMiss = errors.New("cache miss")

	// ErrNilData indicates Save was called without a document
	ErrNilData = errors.New("cache data cannot be nil")
)

// Store is the cache abstraction the listener renders through.
type Store interface {
	// Test reports whether an entry exists for key.
	Test(ctx context.Context, key string) (bool, error)

	// Load returns the entry stored under key, or ErrCacheMiss.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores data under key, replacing any existing entry.
	Save(ctx context.Context, data []byte, key string) error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}
