package mdf

import "errors"

// Fatal error kinds returned from Open and the decode/metadata pipeline.
// Non-fatal conditions are reported through diagnostics.Sink instead.
var (
	// ErrUnsupportedVersion is returned when the ID block's version falls
	// outside the supported [300, 330] range.
	ErrUnsupportedVersion = errors.New("mdf: unsupported format version")

	// ErrUnsupportedEndian is returned when the ID block's byte-order flag
	// selects the big-endian variant, which is out of scope.
	ErrUnsupportedEndian = errors.New("mdf: unsupported big-endian byte order")

	// ErrUnsupportedLayout is returned when an unsorted data group is
	// encountered with a record ID that matches no known channel group.
	ErrUnsupportedLayout = errors.New("mdf: unsupported record layout")

	// ErrUnsupportedFormula is returned when a text-formula conversion uses
	// syntax outside the documented grammar.
	ErrUnsupportedFormula = errors.New("mdf: unsupported text formula syntax")
)

const (
	minSupportedVersion = 300
	maxSupportedVersion = 330
)
