package storage

import "errors"

// Sentinel errors returned by Reader, wrapped with context via
// github.com/pkg/errors before reaching the caller.
var (
	// ErrIO is returned when the underlying ReaderAt fails.
	ErrIO = errors.New("storage: io error")

	// ErrTruncated is returned when a declared block size overruns the
	// available data.
	ErrTruncated = errors.New("storage: truncated block")

	// ErrBadTag is returned when a block's 2-byte tag doesn't match what
	// the caller expected at that offset.
	ErrBadTag = errors.New("storage: bad block tag")
)
