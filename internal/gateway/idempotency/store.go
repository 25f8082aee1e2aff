// Package idempotency caches gateway responses to mutating requests so a
// client retry with the same Idempotency-Key header replays the stored
// response instead of re-executing the mutation downstream.
package idempotency

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrNotFound reports that no response is cached under the given key.
var ErrNotFound = errors.New("idempotency record not found")

// Record is the cached response for one idempotency key.
type Record struct {
	StatusCode int         `json:"statusCode"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record) error
}

type memoryEntry struct {
	record    *Record
	expiresAt time.Time
}

// MemoryStore is a process-local Store used in tests and single-instance
// deployments.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}
	return entry.record, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{record: record, expiresAt: time.Now().Add(s.ttl)}
	return nil
}
