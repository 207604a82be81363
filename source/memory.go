package source

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Memory is an in-memory Source. Revision numbers are global to the
// source, so a document's revisions need not be consecutive.
type Memory struct {
	mu   sync.RWMutex
	last int64
	docs map[string][]memRev
}

type memRev struct {
	rev  Revision
	data []byte
}

var _ Source = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{docs: map[string][]memRev{}}
}

// Commit records new content for key and returns its revision.
func (m *Memory) Commit(key string, t time.Time, data []byte) Revision {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last++
	rev := Revision{Number: m.last, Time: t, ID: fmt.Sprintf("r%d", m.last)}
	m.docs[key] = append(m.docs[key], memRev{rev: rev, data: bytes.Clone(data)})
	return rev
}

// Skip advances the revision counter without touching any document.
func (m *Memory) Skip(n int64) {
	m.mu.Lock()
	m.last += n
	m.mu.Unlock()
}

func (m *Memory) Revisions(_ context.Context, key string) ([]Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	revs, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	res := make([]Revision, len(revs))
	for i, r := range revs {
		res[i] = r.rev
	}
	return res, nil
}

func (m *Memory) Fetch(_ context.Context, key string, rev Revision) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	revs, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	i, ok := slices.BinarySearchFunc(revs, rev.Number, func(r memRev, n int64) int {
		switch {
		case r.rev.Number < n:
			return -1
		case r.rev.Number > n:
			return 1
		}
		return 0
	})
	if !ok {
		return nil, fmt.Errorf("%w: %s@%d", ErrRevision, key, rev.Number)
	}
	return bytes.Clone(revs[i].data), nil
}
