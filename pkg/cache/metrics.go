package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store labels used by the metrics below.
const (
	storeRedis  = "redis"
	storeGCS    = "gcs"
	storeMemory = "memory"
)

var (
	// CacheHits tracks loads served from a store
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_cache_hits_total",
			Help: "Total number of PDF cache hits",
		},
		[]string{"store"}, // "redis", "gcs", "memory"
	)

	// CacheMisses tracks lookups that found no entry
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_cache_misses_total",
			Help: "Total number of PDF cache misses",
		},
		[]string{"store"},
	)

	// CacheStoredBytes tracks bytes written to a store
	CacheStoredBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_cache_stored_bytes_total",
			Help: "Total number of PDF bytes written to the cache",
		},
		[]string{"store"},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"store", "operation"}, // "test", "load", "save"
	)

	// CacheEvictions tracks entries dropped by expiry or the size limit
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_cache_evictions_total",
			Help: "Total number of PDF documents evicted from the cache",
		},
		[]string{"store"},
	)
)
