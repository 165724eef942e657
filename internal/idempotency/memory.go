package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for local development and tests.
// Best-effort only: records do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	nowFunc func() time.Time
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[key]
	if !ok || s.nowFunc().After(e.expiresAt) {
		delete(s.records, key)
		return nil, nil
	}
	rec := e.rec
	return &rec, nil
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, key string, rec Record, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	if e, ok := s.records[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	rec.Key = key
	rec.CachedAt = now
	rec.ExpiresAt = now.Add(ttl).Unix()
	s.records[key] = memoryEntry{rec: rec, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	rec.Key = key
	rec.Status = StatusDone
	rec.ExpiresAt = now.Add(ttl).Unix()
	s.records[key] = memoryEntry{rec: rec, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
