package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	catalogapp "github.com/shopline/backend/internal/application/catalog"
)

var _ catalogapp.ObjectStorageService = (*MemoryImageStore)(nil)

// MemoryImageStore is an in-process ObjectStorageService for local runs and
// tests. Presigned URLs point at BaseURL; uploads are simulated with Put.
type MemoryImageStore struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]string
}

// NewMemoryImageStore creates an empty store
func NewMemoryImageStore(baseURL string) *MemoryImageStore {
	if baseURL == "" {
		baseURL = "http://localhost:9000/images"
	}
	return &MemoryImageStore{BaseURL: baseURL, objects: make(map[string]string)}
}

// Put records an object as uploaded
func (s *MemoryImageStore) Put(storageKey, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = contentType
}

func (s *MemoryImageStore) GenerateUploadURL(_ context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	return s.url(storageKey, "PUT", expiresIn)
}

func (s *MemoryImageStore) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	return s.url(storageKey, "GET", expiresIn)
}

func (s *MemoryImageStore) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

func (s *MemoryImageStore) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

func (s *MemoryImageStore) url(storageKey, method string, expiresIn time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{}
	q.Set("method", method)
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	return s.BaseURL + "/" + storageKey + "?" + q.Encode(), expiresAt, nil
}
