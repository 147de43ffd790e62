package mdf

import "github.com/mdfreader/mdf3/diagnostics"

// MetadataLevel controls how much of the block graph Open walks
type MetadataLevel int

const (
	// MetadataFull reads everything: ID, HD, DG, CG, CN, CC and all
	// associated text blocks.
	MetadataFull MetadataLevel = 0

	// MetadataSkipText reads DG, CG, CN and CC but skips text-only blocks
	// (comments, identifiers, long names).
	MetadataSkipText MetadataLevel = 1

	// MetadataGroupsOnly reads DG blocks only.
	MetadataGroupsOnly MetadataLevel = 2
)

// Options configures Open. There are no environment-variable inputs; every
// behavior is set here explicitly.
type Options struct {
	// Level controls how much metadata is read. Zero value is MetadataFull.
	Level MetadataLevel

	// FilterLongNames reduces a resolved channel name to the last
	// dot-delimited segment, for files that embed a module path in the
	// ASAM long name.
	FilterLongNames bool

	// Concurrency bounds the number of data groups decoded in parallel.
	// Zero or one means single-threaded (the default); values above one
	// enable the worker pool.
	Concurrency int

	// Diagnostics receives non-fatal warnings. A nil Sink discards them.
	Diagnostics diagnostics.Sink
}

func (o Options) sink() diagnostics.Sink {
	return diagnostics.OrDiscard(o.Diagnostics)
}

func (o Options) concurrency() int {
	if o.Concurrency < 1 {
		return 1
	}
	return o.Concurrency
}
