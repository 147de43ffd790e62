package mdf

// ConversionDescriptor is the pending conversion rule for a channel.
// Exactly one of the type-specific fields is meaningful, selected by Type.
type ConversionDescriptor struct {
	Type int

	Linear      LinearParams
	Table       []TablePair
	Polynomial  PolynomialParams
	ExpLog      ExpLogParams
	Rational    RationalParams
	TextFormula string
	IntToText   []IntTextPair
	RangeToText []RangeTextTriple
}

// LinearParams holds conversion type 0: phys = raw*P2 + P1.
type LinearParams struct {
	P1, P2 float64
}

// TablePair is one (int, phys) pair for conversion types 1 and 2.
type TablePair struct {
	Int, Phys float64
}

// PolynomialParams holds conversion type 6's six coefficients.
type PolynomialParams struct {
	P1, P2, P3, P4, P5, P6 float64
}

// ExpLogParams holds conversion type 7 (exponential) or 8 (logarithmic)'s
// seven coefficients.
type ExpLogParams struct {
	P1, P2, P3, P4, P5, P6, P7 float64
}

// RationalParams holds conversion type 9's six coefficients.
type RationalParams struct {
	P1, P2, P3, P4, P5, P6 float64
}

// IntTextPair is one (int, text) pair for conversion type 11.
type IntTextPair struct {
	Int  float64
	Text string
}

// RangeTextTriple is one (lower, upper, text) triple for conversion type 12.
// The first triple in ConversionDescriptor.RangeToText is the default,
// matching the on-disk convention.
type RangeTextTriple struct {
	Lower, Upper float64
	Text         string
}

// ChannelEntry is the public view of one decoded channel:
type ChannelEntry struct {
	// Samples holds the current column, raw until Convert/ConvertAll runs,
	// physical afterward.
	Samples Samples

	// Master is the key of this channel's data group master channel, of
	// the form "master<dg>", shared by every channel in the data group
	// regardless of which channel group declares it.
	Master string

	// Unit is the physical unit string from the channel's conversion
	// block, empty when none was declared.
	Unit string

	// Description is the channel's free-text description.
	Description string

	// DeviceName is the segment of the ASAM long name following the first
	// backslash, when present (a supplemented feature).
	DeviceName string

	// Conversion is the pending conversion rule; nil once Convert has run
	// (or when the channel was identity/absent to begin with).
	Conversion *ConversionDescriptor

	dataGroup    int
	channelGroup int
	recordCount  int
}
