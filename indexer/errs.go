package indexer

import "errors"

var (
	ErrConfig = errors.New("invalid indexer config")
	// ErrStale is returned when the stored index is newer than the one
	// about to be written.
	ErrStale = errors.New("stored index is newer")
	// ErrMismatch is returned by Check when the stored index does not
	// reproduce the document at its version.
	ErrMismatch = errors.New("index does not match document")
)
