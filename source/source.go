// Package source provides the revisions and content of indexed
// documents.
package source

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("content not found")
	ErrRevision = errors.New("unknown revision")
)

// Revision identifies one revision of a document. Numbers increase
// with time within a source.
type Revision struct {
	Number int64
	Time   time.Time
	// ID is the source's own name for the revision, if any.
	ID string
}

// ContentSource fetches document content at a revision.
type ContentSource interface {
	Fetch(ctx context.Context, key string, rev Revision) ([]byte, error)
}

// RevisionSource lists the revisions that changed a document, oldest
// first.
type RevisionSource interface {
	Revisions(ctx context.Context, key string) ([]Revision, error)
}

// Source is both a ContentSource and a RevisionSource.
type Source interface {
	ContentSource
	RevisionSource
}

// Find returns the revision with the given number.
func Find(revs []Revision, number int64) (Revision, bool) {
	for _, r := range revs {
		if r.Number == number {
			return r, true
		}
	}
	return Revision{}, false
}
