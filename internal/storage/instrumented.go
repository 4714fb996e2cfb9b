package storage

import (
	"Next_Express/internal/metrics"
	"context"
	"io"
	"time"
)

// InstrumentedStore counts every call into s3_operations_total.
type InstrumentedStore struct {
	inner   Store
	metrics *metrics.Registry
}

// Instrument wraps store with operation counters.
func Instrument(store Store, m *metrics.Registry) *InstrumentedStore {
	return &InstrumentedStore{inner: store, metrics: m}
}

// Unwrap returns the wrapped store.
func (s *InstrumentedStore) Unwrap() Store {
	return s.inner
}

func (s *InstrumentedStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error {
	err := s.inner.PutObject(ctx, bucket, object, reader, size, opts)
	s.metrics.ObserveStore("put", err)
	return err
}

func (s *InstrumentedStore) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error) {
	body, info, err := s.inner.GetObject(ctx, bucket, object)
	s.metrics.ObserveStore("get", err)
	return body, info, err
}

func (s *InstrumentedStore) RemoveObject(ctx context.Context, bucket, object string) error {
	err := s.inner.RemoveObject(ctx, bucket, object)
	s.metrics.ObserveStore("delete", err)
	return err
}

func (s *InstrumentedStore) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	url, err := s.inner.PresignedGetObject(ctx, bucket, object, expiry)
	s.metrics.ObserveStore("presign", err)
	return url, err
}

func (s *InstrumentedStore) ObjectURL(bucket, object string) string {
	return s.inner.ObjectURL(bucket, object)
}

func (s *InstrumentedStore) Ping(ctx context.Context, bucket string) error {
	err := s.inner.Ping(ctx, bucket)
	s.metrics.ObserveStore("ping", err)
	return err
}

// Resolver is implemented by stores that serve their own signed links.
type Resolver interface {
	Resolve(token string) (bucket, object string, err error)
}

// AsResolver finds a Resolver behind any number of wrappers.
func AsResolver(store Store) (Resolver, bool) {
	for store != nil {
		if r, ok := store.(Resolver); ok {
			return r, true
		}
		w, ok := store.(interface{ Unwrap() Store })
		if !ok {
			return nil, false
		}
		store = w.Unwrap()
	}
	return nil, false
}
