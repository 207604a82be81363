package vfile

import (
	"errors"

	"github.com/Reposoft/repos-deltav-sub000/vfile/internal/tagged"
)

// Every failure of the engine wraps exactly one of these.
var (
	// ErrMalformedIndex rejects a persisted index at load time.
	ErrMalformedIndex = tagged.ErrMalformed
	// ErrAddressing reports a scheduled or pending path which does not
	// resolve to a live node of the index.
	ErrAddressing = errors.New("addressing failure")
	// ErrUnsupportedDiff reports a structural change the index cannot
	// record.
	ErrUnsupportedDiff = errors.New("unsupported difference")
	// ErrIntegrity reports an index which does not reflect the document
	// it was updated to, or an update which would rewrite history.
	ErrIntegrity = errors.New("index integrity violation")
)
