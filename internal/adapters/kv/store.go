// Package kv defines the abstract key-value collaborator the progression
// engine persists through, plus its memory, redis and postgres backends.
//
// The store offers single-key operations only. Per-user mutual exclusion for
// read-modify-write cycles is enforced by the caller, never assumed of the
// store.
package kv

import "context"

// Pair is one key-value row returned by prefix scans.
type Pair struct {
	Key   string
	Value []byte
}

// Store provides the single-key operations the engine relies on.
type Store interface {
	// Get returns the value for key; the boolean reports presence.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// GetByPrefix returns all pairs whose key starts with prefix, ordered
	// by key.
	GetByPrefix(ctx context.Context, prefix string) ([]Pair, error)

	// Close releases backend resources.
	Close() error
}
