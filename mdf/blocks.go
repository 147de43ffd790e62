package mdf

// This file defines the raw, on-disk shape of each MDF 3.x block exactly as
// laid out in the file: little-endian throughout (barring a handful of
// fields the ID block's byte-order flag can flip), read with
// storage.Reader.ReadStruct. These raw structs are never exposed to callers
// of the mdf package — graph.go turns them into the public/derived types.

// idBlockRaw is read once at the fixed offset 24, 8 bytes, no tag/size
// header of its own (unlike every other block).
type idBlockRaw struct {
	ByteOrder       uint16
	FloatFormat     uint16
	Version         uint16
	CodePageNumber  uint16
}

// headerBlockRaw310 is the HD block layout for format versions < 320.
type headerBlockRaw310 struct {
	Tag                [2]byte
	BlockSize          uint16
	PointerToFirstDG   uint32
	PointerToTX        uint32
	PointerToPR        uint32
	NumberOfDataGroups uint16
	Date               [10]byte
	Time               [8]byte
	Author             [32]byte
	Organization       [32]byte
	ProjectName        [32]byte
	Subject            [32]byte
}

// headerBlockRaw320 is the HD block layout for format versions >= 320: the
// 310 layout plus a UTC timestamp, offset, quality class and time ID.
type headerBlockRaw320 struct {
	headerBlockRaw310
	TimeStampNS      uint64
	UTCOffsetRaw     uint16
	TimeQualityClass uint16
	TimeIdentification [32]byte
}

const headerBlock310Size = 164
const headerBlock320Size = 208

// dataGroupRaw is the DG block, 24 bytes.
type dataGroupRaw struct {
	Tag                   [2]byte
	BlockSize             uint16
	PointerToNextDG       uint32
	PointerToFirstCG      uint32
	Reserved              uint32
	PointerToDataRecords  uint32
	NumberOfChannelGroups uint16
	NumberOfRecordIDs     uint16
}

const dataGroupBlockSize = 24

// channelGroupRaw is the CG block, 26 bytes.
type channelGroupRaw struct {
	Tag              [2]byte
	BlockSize        uint16
	PointerToNextCG  uint32
	PointerToFirstCN uint32
	PointerToComment uint32
	RecordID         uint16
	NumberOfChannels uint16
	DataRecordSize   uint16
	NumberOfRecords  uint32
}

const channelGroupBlockSize = 26

// channelRaw is the CN block, 228 bytes.
type channelRaw struct {
	Tag                  [2]byte
	BlockSize            uint16
	PointerToNextCN      uint32
	PointerToConversion  uint32
	PointerToCE          uint32
	PointerToCD          uint32
	PointerToComment     uint32
	ChannelType          uint16
	SignalName           [32]byte
	SignalDescription    [128]byte
	FirstBit             uint16
	BitCount             uint16
	SignalDataType       uint16
	ValueRangeKnown      uint16
	ValueRangeMin        float64
	ValueRangeMax        float64
	SampleRate           float64
	PointerToASAMName    uint32
	PointerToIdentifier  uint32
	ByteOffsetHint       uint16
}

const channelBlockSize = 228

// conversionRaw is the fixed-size prefix of the CC block, 46 bytes; the
// type-dependent payload that follows is read separately in convert.go.
type conversionRaw struct {
	Tag                 [2]byte
	BlockSize           uint16
	ValueRangeKnown     uint16
	ValueRangeMin       float64
	ValueRangeMax       float64
	PhysicalUnit        [20]byte
	ConversionType      uint16
	NumberOfValuePairs  uint16
}

const conversionBlockSize = 46

// Conversion type codes.
const (
	ccLinear         = 0
	ccTableInterp    = 1
	ccTable          = 2
	ccPolynomial     = 6
	ccExponential    = 7
	ccLogarithmic    = 8
	ccRational       = 9
	ccTextFormula    = 10
	ccIntToText      = 11
	ccRangeToText    = 12
	ccIdentity       = 65535
)

// Signal data type codes.
const (
	sdtUnsignedLE       = 0
	sdtSignedLE         = 1
	sdtFloatLE          = 2
	sdtFloatBE          = 3
	sdtStringFixed      = 7
	sdtByteArray         = 8
	sdtUnsignedBE       = 9
	sdtSignedBE         = 10
	sdtUnsignedSourceEnd = 11
	sdtUnsignedSourceEnd13 = 13
	sdtUnsignedSourceEnd14 = 14
)

// Channel types.
const (
	channelTypeData   = 0
	channelTypeMaster = 1
)
