package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopline/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore is the single-instance idempotency store.
// A background loop evicts expired keys until Close is called.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiry    map[string]time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	now       func() time.Time
}

// NewInMemoryIdempotencyStore starts a store that sweeps expired keys every interval
func NewInMemoryIdempotencyStore(interval time.Duration) *InMemoryIdempotencyStore {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &InMemoryIdempotencyStore{
		expiry: make(map[string]time.Time),
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	s.wg.Add(1)
	go s.sweepLoop(interval)
	return s
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiry[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiry[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expiry[key]
	return ok && s.now().Before(exp), nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expiry, key)
	return nil
}

// Close stops the sweep loop. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Len returns the number of stored keys, expired or not
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.expiry {
		if !now.Before(exp) {
			delete(s.expiry, k)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
