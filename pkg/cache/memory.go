package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries is the capacity of a MemoryStore created with a
// non-positive size.
const DefaultMemoryEntries = 1024

// MemoryStore keeps rendered documents in process memory.
//
// It holds at most size documents, evicting the least recently used one when
// full. Entries expire after the configured TTL and are removed in the
// background whether or not they are read again; a zero TTL keeps them until
// they are evicted.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	onEvict := func(string, []byte) {
		CacheEvictions.WithLabelValues(storeMemory).Inc()
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, []byte](size, onEvict, ttl),
	}
}

// Test reports whether a live entry exists for key.
func (s *MemoryStore) Test(ctx context.Context, key string) (bool, error) {
	if _, ok := s.lru.Peek(key); !ok {
		CacheMisses.WithLabelValues(storeMemory).Inc()
		return false, nil
	}
	return true, nil
}

// Load returns the entry stored under key, or ErrCacheMiss.
func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.lru.Get(key)
	if !ok {
		CacheMisses.WithLabelValues(storeMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(storeMemory).Inc()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save stores a copy of data under key.
func (s *MemoryStore) Save(ctx context.Context, data []byte, key string) error {
	if data == nil {
		return ErrNilData
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	s.lru.Add(key, stored)

	CacheStoredBytes.WithLabelValues(storeMemory).Add(float64(len(data)))
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of entries held, including expired entries the
// background sweep has not removed yet.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
