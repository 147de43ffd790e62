package mdf

import (
	"bytes"
	"encoding/binary"
)

// fixedBytes returns s truncated or NUL-padded to exactly n bytes, mirroring
// how MDF stores fixed-width ASCII/latin-1 fields on disk.
func fixedBytes(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func fixed10(s string) [10]byte {
	var a [10]byte
	copy(a[:], fixedBytes(s, 10))
	return a
}

func fixed8(s string) [8]byte {
	var a [8]byte
	copy(a[:], fixedBytes(s, 8))
	return a
}

func fixed32(s string) [32]byte {
	var a [32]byte
	copy(a[:], fixedBytes(s, 32))
	return a
}

func fixed20(s string) [20]byte {
	var a [20]byte
	copy(a[:], fixedBytes(s, 20))
	return a
}

func fixed128(s string) [128]byte {
	var a [128]byte
	copy(a[:], fixedBytes(s, 128))
	return a
}

func fixed2(s string) [2]byte {
	var a [2]byte
	copy(a[:], fixedBytes(s, 2))
	return a
}

// testBuilder lays out an in-memory MDF3 byte buffer block by block, each
// write appending at the buffer's current end and reporting its own offset,
// so pointer fields can be filled in as later blocks are appended.
type testBuilder struct {
	buf bytes.Buffer
}

func (b *testBuilder) offset() uint32 {
	return uint32(b.buf.Len())
}

func (b *testBuilder) write(v interface{}) uint32 {
	off := b.offset()
	if err := binary.Write(&b.buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return off
}

func (b *testBuilder) pad(n int) {
	b.buf.Write(make([]byte, n))
}

// buildSortedMinimalFile builds a single-data-group, single-channel-group
// sorted MDF3 file: a float64 master "time" channel and a uint16 "speed"
// channel under a linear conversion (phys = raw*2).
func buildSortedMinimalFile() []byte {
	b := &testBuilder{}

	b.pad(idBlockOffset) // bytes [0, 24) precede the ID block.
	b.write(idBlockRaw{ByteOrder: 0, FloatFormat: 0, Version: 300, CodePageNumber: 0})
	b.pad(int(headerBlockOffset) - int(b.offset()))

	// Block offsets below are filled in with placeholders and patched via
	// Bytes() after every block has been written, since DG/CG/CN/CC form a
	// forward-pointing chain whose later offsets aren't known up front.
	hdOff := b.offset()
	b.write(headerBlockRaw310{
		Tag:                fixed2("HD"),
		BlockSize:          headerBlock310Size,
		PointerToFirstDG:   0, // patched below
		PointerToTX:        0,
		PointerToPR:        0,
		NumberOfDataGroups: 1,
		Date:               fixed10("01:01:2024"),
		Time:               fixed8("12:00:00"),
		Author:             fixed32("tester"),
		Organization:       fixed32("acme"),
		ProjectName:        fixed32("proj"),
		Subject:            fixed32("subj"),
	})

	dgOff := b.offset()
	b.write(dataGroupRaw{
		Tag:                   fixed2("DG"),
		BlockSize:             dataGroupBlockSize,
		PointerToNextDG:       0,
		PointerToFirstCG:      0, // patched below
		Reserved:              0,
		PointerToDataRecords:  0, // patched below
		NumberOfChannelGroups: 1,
		NumberOfRecordIDs:     0,
	})

	cgOff := b.offset()
	b.write(channelGroupRaw{
		Tag:              fixed2("CG"),
		BlockSize:        channelGroupBlockSize,
		PointerToNextCG:  0,
		PointerToFirstCN: 0, // patched below
		PointerToComment: 0,
		RecordID:         0,
		NumberOfChannels: 2,
		DataRecordSize:   10,
		NumberOfRecords:  3,
	})

	cn2Off := b.offset() + channelBlockSize // master CN is written first, data CN follows immediately.

	masterCNOff := b.offset()
	b.write(channelRaw{
		Tag:                 fixed2("CN"),
		BlockSize:           channelBlockSize,
		PointerToNextCN:     cn2Off,
		PointerToConversion: 0,
		PointerToCE:         0,
		PointerToCD:         0,
		PointerToComment:    0,
		ChannelType:         channelTypeMaster,
		SignalName:          fixed32("time"),
		SignalDescription:   fixed128(""),
		FirstBit:            0,
		BitCount:            64,
		SignalDataType:      sdtFloatLE,
		ValueRangeKnown:     0,
		ValueRangeMin:       0,
		ValueRangeMax:       0,
		SampleRate:          0,
		PointerToASAMName:   0,
		PointerToIdentifier: 0,
		ByteOffsetHint:      0,
	})

	ccOff := b.offset() + channelBlockSize // conversion block follows the data CN.

	dataCNOff := b.offset()
	if dataCNOff != cn2Off {
		panic("data CN offset mismatch")
	}
	b.write(channelRaw{
		Tag:                 fixed2("CN"),
		BlockSize:           channelBlockSize,
		PointerToNextCN:     0,
		PointerToConversion: ccOff,
		PointerToCE:         0,
		PointerToCD:         0,
		PointerToComment:    0,
		ChannelType:         channelTypeData,
		SignalName:          fixed32("speed"),
		SignalDescription:   fixed128(""),
		FirstBit:            64,
		BitCount:            16,
		SignalDataType:      sdtUnsignedLE,
		ValueRangeKnown:     0,
		ValueRangeMin:       0,
		ValueRangeMax:       0,
		SampleRate:          0,
		PointerToASAMName:   0,
		PointerToIdentifier: 0,
		ByteOffsetHint:      0,
	})

	if b.offset() != ccOff {
		panic("CC offset mismatch")
	}
	b.write(conversionRaw{
		Tag:                fixed2("CC"),
		BlockSize:          conversionBlockSize + 16,
		ValueRangeKnown:    0,
		ValueRangeMin:      0,
		ValueRangeMax:      0,
		PhysicalUnit:       fixed20("km/h"),
		ConversionType:     ccLinear,
		NumberOfValuePairs: 0,
	})
	b.write(struct{ P1, P2 float64 }{P1: 0, P2: 2.0})

	dataOff := b.offset()
	writeRecord(b, 0.0, 10)
	writeRecord(b, 1.0, 20)
	writeRecord(b, 2.0, 30)

	out := b.buf.Bytes()
	patchUint32(out, int64(hdOff)+4, dgOff)
	patchUint32(out, int64(dgOff)+8, cgOff)
	patchUint32(out, int64(dgOff)+16, dataOff)
	patchUint32(out, int64(cgOff)+8, masterCNOff)

	return out
}

func writeRecord(b *testBuilder, t float64, speed uint16) {
	b.write(struct {
		Time  float64
		Speed uint16
	}{Time: t, Speed: speed})
}

// buildSortedThreeChannelFile builds a single-data-group, single-channel-group
// sorted MDF3 file with a float64 master "time" channel and two unconverted
// uint16 data channels, "speed" and "rpm", used to exercise Keep's
// automatic master retention against a channel that should actually drop.
func buildSortedThreeChannelFile() []byte {
	b := &testBuilder{}

	b.pad(idBlockOffset)
	b.write(idBlockRaw{ByteOrder: 0, FloatFormat: 0, Version: 300, CodePageNumber: 0})
	b.pad(int(headerBlockOffset) - int(b.offset()))

	hdOff := b.offset()
	b.write(headerBlockRaw310{
		Tag:                fixed2("HD"),
		BlockSize:          headerBlock310Size,
		NumberOfDataGroups: 1,
		Date:               fixed10(""),
		Time:               fixed8(""),
		Author:             fixed32(""),
		Organization:       fixed32(""),
		ProjectName:        fixed32(""),
		Subject:            fixed32(""),
	})

	dgOff := b.offset()
	b.write(dataGroupRaw{
		Tag:                   fixed2("DG"),
		BlockSize:             dataGroupBlockSize,
		NumberOfChannelGroups: 1,
		NumberOfRecordIDs:     0,
	})

	cgOff := b.offset()
	b.write(channelGroupRaw{
		Tag:              fixed2("CG"),
		BlockSize:        channelGroupBlockSize,
		PointerToFirstCN: 0, // patched below
		NumberOfChannels: 3,
		DataRecordSize:   12,
		NumberOfRecords:  1,
	})

	masterCNOff := b.offset()
	speedCNOff := masterCNOff + channelBlockSize
	rpmCNOff := speedCNOff + channelBlockSize

	b.write(channelRaw{
		Tag:             fixed2("CN"),
		BlockSize:       channelBlockSize,
		PointerToNextCN: speedCNOff,
		ChannelType:     channelTypeMaster,
		SignalName:      fixed32("time"),
		FirstBit:        0,
		BitCount:        64,
		SignalDataType:  sdtFloatLE,
	})

	if b.offset() != speedCNOff {
		panic("speed CN offset mismatch")
	}
	b.write(channelRaw{
		Tag:             fixed2("CN"),
		BlockSize:       channelBlockSize,
		PointerToNextCN: rpmCNOff,
		ChannelType:     channelTypeData,
		SignalName:      fixed32("speed"),
		FirstBit:        64,
		BitCount:        16,
		SignalDataType:  sdtUnsignedLE,
	})

	if b.offset() != rpmCNOff {
		panic("rpm CN offset mismatch")
	}
	b.write(channelRaw{
		Tag:             fixed2("CN"),
		BlockSize:       channelBlockSize,
		PointerToNextCN: 0,
		ChannelType:     channelTypeData,
		SignalName:      fixed32("rpm"),
		FirstBit:        80,
		BitCount:        16,
		SignalDataType:  sdtUnsignedLE,
	})

	dataOff := b.offset()
	b.write(struct {
		Time  float64
		Speed uint16
		Rpm   uint16
	}{Time: 0, Speed: 10, Rpm: 500})

	out := b.buf.Bytes()
	patchUint32(out, int64(hdOff)+4, dgOff)
	patchUint32(out, int64(dgOff)+8, cgOff)
	patchUint32(out, int64(dgOff)+16, dataOff)
	patchUint32(out, int64(cgOff)+8, masterCNOff)

	return out
}

// buildUnsortedTwoGroupFile builds a single data group holding two channel
// groups (record IDs 0 and 1), each with one channel, with records
// interleaved on disk and dispatched by the leading record-ID byte.
func buildUnsortedTwoGroupFile() []byte {
	b := &testBuilder{}

	b.pad(idBlockOffset)
	b.write(idBlockRaw{ByteOrder: 0, FloatFormat: 0, Version: 300, CodePageNumber: 0})
	b.pad(int(headerBlockOffset) - int(b.offset()))

	hdOff := b.offset()
	b.write(headerBlockRaw310{
		Tag:                fixed2("HD"),
		BlockSize:          headerBlock310Size,
		NumberOfDataGroups: 1,
		Date:               fixed10(""),
		Time:               fixed8(""),
		Author:             fixed32(""),
		Organization:       fixed32(""),
		ProjectName:        fixed32(""),
		Subject:            fixed32(""),
	})

	dgOff := b.offset()
	b.write(dataGroupRaw{
		Tag:                   fixed2("DG"),
		BlockSize:             dataGroupBlockSize,
		NumberOfChannelGroups: 2,
		NumberOfRecordIDs:     1,
	})

	cgAOff := b.offset()
	cgBOff := cgAOff + channelGroupBlockSize + channelBlockSize
	b.write(channelGroupRaw{
		Tag:              fixed2("CG"),
		BlockSize:        channelGroupBlockSize,
		PointerToNextCG:  cgBOff,
		PointerToFirstCN: b.offset() + channelGroupBlockSize,
		RecordID:         0,
		NumberOfChannels: 1,
		DataRecordSize:   2,
		NumberOfRecords:  2,
	})
	b.write(channelRaw{
		Tag:            fixed2("CN"),
		BlockSize:      channelBlockSize,
		ChannelType:    channelTypeData,
		SignalName:     fixed32("a_value"),
		FirstBit:       0,
		BitCount:       16,
		SignalDataType: sdtUnsignedLE,
	})

	if b.offset() != cgBOff {
		panic("CG B offset mismatch")
	}
	b.write(channelGroupRaw{
		Tag:              fixed2("CG"),
		BlockSize:        channelGroupBlockSize,
		PointerToFirstCN: b.offset() + channelGroupBlockSize,
		RecordID:         1,
		NumberOfChannels: 1,
		DataRecordSize:   1,
		NumberOfRecords:  3,
	})
	b.write(channelRaw{
		Tag:            fixed2("CN"),
		BlockSize:      channelBlockSize,
		ChannelType:    channelTypeData,
		SignalName:     fixed32("b_value"),
		FirstBit:       0,
		BitCount:       8,
		SignalDataType: sdtUnsignedLE,
	})

	dataOff := b.offset()
	writeUnsortedRecordU16(b, 0, 100)
	writeUnsortedRecordU8(b, 1, 7)
	writeUnsortedRecordU16(b, 0, 200)
	writeUnsortedRecordU8(b, 1, 8)
	writeUnsortedRecordU8(b, 1, 9)

	out := b.buf.Bytes()
	patchUint32(out, int64(hdOff)+4, dgOff)
	patchUint32(out, int64(dgOff)+8, cgAOff)
	patchUint32(out, int64(dgOff)+16, dataOff)

	return out
}

func writeUnsortedRecordU16(b *testBuilder, id uint8, v uint16) {
	b.write(id)
	b.write(v)
}

func writeUnsortedRecordU8(b *testBuilder, id uint8, v uint8) {
	b.write(id)
	b.write(v)
}

func patchUint32(buf []byte, offset int64, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

func patchUint16(buf []byte, offset int64, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:offset+2], v)
}

// buildTwoGroupsSameChannelName builds two chained data groups, each with
// one channel group holding a single "signal" channel, to exercise global
// name collision across data groups.
func buildTwoGroupsSameChannelName() []byte {
	b := &testBuilder{}

	b.pad(idBlockOffset)
	b.write(idBlockRaw{ByteOrder: 0, FloatFormat: 0, Version: 300, CodePageNumber: 0})
	b.pad(int(headerBlockOffset) - int(b.offset()))

	hdOff := b.offset()
	b.write(headerBlockRaw310{
		Tag:                fixed2("HD"),
		BlockSize:          headerBlock310Size,
		NumberOfDataGroups: 2,
		Date:               fixed10(""),
		Time:               fixed8(""),
		Author:             fixed32(""),
		Organization:       fixed32(""),
		ProjectName:        fixed32(""),
		Subject:            fixed32(""),
	})

	dg0Off := b.offset()
	dg1Off := dg0Off + dataGroupBlockSize + channelGroupBlockSize + channelBlockSize + 1
	writeOneChannelDataGroup(b, dg1Off, "signal")

	if b.offset() != dg1Off {
		panic("DG1 offset mismatch")
	}
	writeOneChannelDataGroup(b, 0, "signal")

	out := b.buf.Bytes()
	patchUint32(out, int64(hdOff)+4, dg0Off)
	return out
}

// writeOneChannelDataGroup writes one DG/CG/CN chain plus a single 1-byte
// record, chaining to nextDG.
func writeOneChannelDataGroup(b *testBuilder, nextDG uint32, name string) {
	dgOff := b.offset()
	b.write(dataGroupRaw{
		Tag:                   fixed2("DG"),
		BlockSize:             dataGroupBlockSize,
		PointerToNextDG:       nextDG,
		NumberOfChannelGroups: 1,
		NumberOfRecordIDs:     0,
	})

	cgOff := b.offset()
	b.write(channelGroupRaw{
		Tag:              fixed2("CG"),
		BlockSize:        channelGroupBlockSize,
		PointerToFirstCN: b.offset() + channelGroupBlockSize,
		NumberOfChannels: 1,
		DataRecordSize:   1,
		NumberOfRecords:  1,
	})
	b.write(channelRaw{
		Tag:            fixed2("CN"),
		BlockSize:      channelBlockSize,
		ChannelType:    channelTypeData,
		SignalName:     fixed32(name),
		FirstBit:       0,
		BitCount:       8,
		SignalDataType: sdtUnsignedLE,
	})

	dataOff := b.offset()
	b.write(uint8(42))

	out := b.buf.Bytes()
	patchUint32(out, int64(dgOff)+8, cgOff)
	patchUint32(out, int64(dgOff)+16, dataOff)
}
