package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ecolens/ecolens/pkg/metrics"
)

// MemoryStore implements Store with an in-process map. It is the default
// backend and the one the test suite runs against.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value so callers cannot alias internal
// state.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	defer observe("get", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a copy of value under key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	defer observe("set", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

// GetByPrefix returns matching pairs ordered by key for deterministic scans.
func (s *MemoryStore) GetByPrefix(_ context.Context, prefix string) ([]Pair, error) {
	defer observe("get_by_prefix", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var pairs []Pair
	for k, v := range s.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out := make([]byte, len(v))
		copy(out, v)
		pairs = append(pairs, Pair{Key: k, Value: out})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}

// Close marks the store closed; later operations fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordKVOperation(op, time.Since(start))
}
