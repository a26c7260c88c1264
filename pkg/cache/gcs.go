package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore keeps rendered documents as objects in a Cloud Storage bucket.
// Expiry is left to the bucket's lifecycle rules.
type GCSStore struct {
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSStore creates a store writing objects under prefix in bucket.
func NewGCSStore(bucket *storage.BucketHandle, prefix string) *GCSStore {
	if bucket == nil {
		panic("gcs bucket cannot be nil")
	}
	return &GCSStore{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// ObjectName maps a cache key to its object name.
// pdf:v1:html:abc under prefix "cache" becomes cache/pdf/v1/html/abc.pdf.
func (s *GCSStore) ObjectName(key string) string {
	name := strings.ReplaceAll(key, ":", "/") + ".pdf"
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Test reports whether the object for key exists.
func (s *GCSStore) Test(ctx context.Context, key string) (bool, error) {
	_, err := s.bucket.Object(s.ObjectName(key)).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			CacheMisses.WithLabelValues(storeGCS).Inc()
			return false, nil
		}
		CacheErrors.WithLabelValues(storeGCS, "test").Inc()
		return false, fmt.Errorf("gcs attrs: %w", err)
	}
	return true, nil
}

// Load reads the object stored for key.
func (s *GCSStore) Load(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(s.ObjectName(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			CacheMisses.WithLabelValues(storeGCS).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(storeGCS, "load").Inc()
		return nil, fmt.Errorf("gcs open: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		CacheErrors.WithLabelValues(storeGCS, "load").Inc()
		return nil, fmt.Errorf("gcs read: %w", err)
	}

	CacheHits.WithLabelValues(storeGCS).Inc()
	return data, nil
}

// Save writes data only if no object exists for key yet. Identical keys hold
// identical documents, so losing the race to another writer is not an error.
func (s *GCSStore) Save(ctx context.Context, data []byte, key string) error {
	if data == nil {
		return ErrNilData
	}

	obj := s.bucket.Object(s.ObjectName(key)).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = "application/pdf"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		if isPreconditionFailed(err) {
			return nil
		}
		CacheErrors.WithLabelValues(storeGCS, "save").Inc()
		return fmt.Errorf("gcs write: %w", err)
	}

	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return nil
		}
		CacheErrors.WithLabelValues(storeGCS, "save").Inc()
		return fmt.Errorf("gcs finalize: %w", err)
	}

	CacheStoredBytes.WithLabelValues(storeGCS).Add(float64(len(data)))
	return nil
}

// Ping checks that the bucket is reachable.
func (s *GCSStore) Ping(ctx context.Context) error {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket attrs: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusPreconditionFailed
	}
	return false
}
