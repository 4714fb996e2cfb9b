package storage

import (
	"Next_Express/utils"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process memory. Presigned URLs are signed
// links to the /blobs endpoint of this server.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	secret  []byte
	baseURL string
}

// NewMemoryStore builds an empty store; baseURL is where /blobs is served.
func NewMemoryStore(secret, baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		secret:  []byte(secret),
		baseURL: baseURL,
	}
}

func memoryKey(bucket, object string) string {
	return bucket + "/" + object
}

// PutObject stores a copy of the reader's content.
func (s *MemoryStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("short upload: got %d bytes, want %d", len(data), size)
	}
	s.mu.Lock()
	s.objects[memoryKey(bucket, object)] = memoryObject{data: data, contentType: opts.ContentType}
	s.mu.Unlock()
	return nil
}

// GetObject returns a reader over the stored content.
func (s *MemoryStore) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	s.mu.RLock()
	obj, ok := s.objects[memoryKey(bucket, object)]
	s.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, object)
	}
	info := ObjectInfo{
		ObjectName:  object,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}
	return io.NopCloser(bytes.NewReader(obj.data)), info, nil
}

// RemoveObject deletes an object; removing a missing key is not an error.
func (s *MemoryStore) RemoveObject(ctx context.Context, bucket, object string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, memoryKey(bucket, object))
	s.mu.Unlock()
	return nil
}

// PresignedGetObject returns a token link that expires after expiry.
func (s *MemoryStore) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token, err := utils.SignBlobToken(s.secret, bucket, object, expiry)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/blobs?token=" + url.QueryEscape(token), nil
}

// ObjectURL returns the public path of an object on this server.
func (s *MemoryStore) ObjectURL(bucket, object string) string {
	return s.baseURL + "/public/" + object
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context, bucket string) error {
	return ctx.Err()
}

// Resolve validates a presigned token and returns the object it grants.
func (s *MemoryStore) Resolve(token string) (bucket, object string, err error) {
	claims, err := utils.ParseBlobToken(s.secret, token)
	if err != nil {
		return "", "", err
	}
	return claims.Bucket, claims.Key, nil
}
