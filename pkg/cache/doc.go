// Package cache stores rendered PDF documents keyed by the content they were
// rendered from.
//
// The listener computes a Key from the response body and the stylesheet text,
// probes the store with Test and Load, and writes the rendered document back
// with Save. Expiration is owned by the store, not by the caller.
//
// # Stores
//
//   - RedisStore: shared cache across instances, entries expire after a TTL
//   - GCSStore: objects in a Cloud Storage bucket, lifecycle rules handle expiry
//   - MemoryStore: in-process cache for development and tests
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	store := cache.NewRedisStore(redisClient, 24*time.Hour)
//
//	key := cache.NewKey(directive.ParserHTML, body, stylesheet)
//
//	ok, err := store.Test(ctx, key.String())
//	if err == nil && ok {
//		data, err := store.Load(ctx, key.String())
//		// ...
//	}
//
//	if err := store.Save(ctx, pdf, key.String()); err != nil {
//		return err
//	}
//
// # Concurrency
//
// Each store operation is individually safe. A Test followed by a Save is not
// atomic: two requests rendering the same content may both write the entry.
// The content is deterministic, so the second write is a harmless overwrite.
//
// # Metrics
//
// The stores export Prometheus metrics:
//
//   - pdf_cache_hits_total{store} - Loads served from the store
//   - pdf_cache_misses_total{store} - Test or Load found no entry
//   - pdf_cache_stored_bytes_total{store} - Bytes written by Save
//   - pdf_cache_errors_total{store,operation} - Store operation errors
package cache
