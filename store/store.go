// Package store persists serialized indexes by resource key.
//
// Backends live in subpackages; this package holds the interface, an
// in-memory store and a directory store.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("index not found")
	ErrClosed   = errors.New("store closed")
	ErrKey      = errors.New("invalid key")
)

// Store persists the serialized index of each resource. Callers never
// put an index older than the one stored under the same key.
type Store interface {
	Has(ctx context.Context, key string) (bool, error)
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// CheckKey rejects the empty key.
func CheckKey(key string) error {
	if key == "" {
		return ErrKey
	}
	return nil
}
