package memory

import (
	"context"
	"sync"
	"time"

	"luxrent/internal/app/middleware"
)

// IdempotencyStore stores results in memory. Records older than TTL are
// treated as absent.
type IdempotencyStore struct {
	mu    sync.Mutex
	items map[string]middleware.IdempotencyRecord
	ttl   time.Duration
	now   func() time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord), ttl: ttl, now: time.Now}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, rec middleware.IdempotencyRecord) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if held, ok := s.items[rec.Key]; ok && !s.stale(held, now) {
		return held, false, nil
	}
	rec.OccurredAt = now
	s.items[rec.Key] = rec
	return rec, true, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.OccurredAt = s.now()
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.items[key]; ok && held.InFlight {
		delete(s.items, key)
	}
	return nil
}

func (s *IdempotencyStore) stale(rec middleware.IdempotencyRecord, now time.Time) bool {
	age := now.Sub(rec.OccurredAt)
	if rec.InFlight {
		return age > middleware.ReservationLease
	}
	return s.ttl > 0 && age > s.ttl
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
