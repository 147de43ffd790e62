package mdf

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mdfreader/mdf3/storage"
)

// decodeDataGroup reads and decodes every channel group of one data group,
// returning each channel group's decoded columns in channel order (matching
// channelGroupInfo.channels). A data group with exactly one channel group and
// no record IDs is "sorted" and read as one contiguous block; any other is
// "unsorted" and dispatched record-by-record on the leading record-ID byte.
func decodeDataGroup(r *storage.Reader, byteOrderFlag uint16, dg *dataGroupInfo) (map[int][]Samples, error) {
	out := map[int][]Samples{}

	if len(dg.channelGroups) == 0 {
		return out, nil
	}

	if len(dg.channelGroups) == 1 && dg.recordIDCount == 0 {
		cg := dg.channelGroups[0]
		layout := resolveLayout(cg.channels, byteOrderFlag, cg.recordSize)
		total := cg.recordSize * cg.recordCount
		buf, err := r.ReadBytes(int64(dg.pointerToDataRecords), total)
		if err != nil {
			return nil, errors.Wrapf(err, "mdf: reading data group %d records", dg.index)
		}
		out[cg.index] = decodeChannelGroup(buf, cg.recordSize, cg.recordCount, layout)
		return out, nil
	}

	return decodeUnsortedDataGroup(r, byteOrderFlag, dg)
}

// decodeUnsortedDataGroup implements the record-ID dispatch read for a data
// group whose records carry record IDs: each record on disk begins with
// a 1-byte record ID (2 bytes when recordIDCount is 2, a duplicate trailing
// ID after the record body), selecting which channel group's layout applies.
func decodeUnsortedDataGroup(r *storage.Reader, byteOrderFlag uint16, dg *dataGroupInfo) (map[int][]Samples, error) {
	byID := map[uint8]*channelGroupInfo{}
	layouts := map[uint8]recordLayout{}
	buffers := map[uint8][]byte{}
	remaining := map[uint8]int{}
	total := 0

	for _, cg := range dg.channelGroups {
		byID[cg.recordID] = cg
		layouts[cg.recordID] = resolveLayout(cg.channels, byteOrderFlag, cg.recordSize)
		remaining[cg.recordID] = cg.recordCount
		total += cg.recordCount
	}

	hasTrailingID := dg.recordIDCount == 2
	offset := int64(dg.pointerToDataRecords)

	for decoded := 0; decoded < total; decoded++ {
		idByte, err := r.ReadBytes(offset, 1)
		if err != nil {
			return nil, errors.Wrapf(err, "mdf: reading record ID in data group %d", dg.index)
		}
		id := idByte[0]
		cg, ok := byID[id]
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedLayout, "data group %d: record ID %d matches no channel group", dg.index, id)
		}

		offset++
		body, err := r.ReadBytes(offset, cg.recordSize)
		if err != nil {
			return nil, errors.Wrapf(err, "mdf: reading record body for channel group %d", cg.index)
		}
		offset += int64(cg.recordSize)
		if hasTrailingID {
			offset++
		}

		buffers[id] = append(buffers[id], body...)
		remaining[id]--
	}

	out := map[int][]Samples{}
	for _, cg := range dg.channelGroups {
		buf := buffers[cg.recordID]
		out[cg.index] = decodeChannelGroup(buf, cg.recordSize, cg.recordCount, layouts[cg.recordID])
	}
	return out, nil
}

// decodeChannelGroup decodes every field of layout from buf (recordCount
// contiguous records of recordSize bytes each, no record-ID prefix) and
// resolves each channel's column, including sub-byte shift-and-mask fields.
func decodeChannelGroup(buf []byte, recordSize, recordCount int, layout recordLayout) []Samples {
	fieldColumns := make([]Samples, len(layout.fields))
	for i, field := range layout.fields {
		fieldColumns[i] = decodeField(buf, recordSize, recordCount, field)
	}

	out := make([]Samples, len(layout.channelField))
	for i := range out {
		if layout.channelField[i] >= 0 {
			out[i] = fieldColumns[layout.channelField[i]]
			continue
		}
		sub := layout.channelSub[i]
		out[i] = extractSubField(fieldColumns[sub.parentField], sub)
	}
	return out
}

func decodeField(buf []byte, recordSize, recordCount int, field recordField) Samples {
	switch field.dtype {
	case dtU8:
		v := make([]uint8, recordCount)
		for i := range v {
			v[i] = buf[i*recordSize+field.byteOffset]
		}
		return Samples{Kind: KindU8, U8: v}

	case dtI8:
		v := make([]int8, recordCount)
		for i := range v {
			v[i] = int8(buf[i*recordSize+field.byteOffset])
		}
		return Samples{Kind: KindI8, I8: v}

	case dtU16:
		v := make([]uint16, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = field.order.Uint16(buf[base : base+2])
		}
		return Samples{Kind: KindU16, U16: v}

	case dtI16:
		v := make([]int16, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = int16(field.order.Uint16(buf[base : base+2]))
		}
		return Samples{Kind: KindI16, I16: v}

	case dtU32:
		v := make([]uint32, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = field.order.Uint32(buf[base : base+4])
		}
		return Samples{Kind: KindU32, U32: v}

	case dtI32:
		v := make([]int32, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = int32(field.order.Uint32(buf[base : base+4]))
		}
		return Samples{Kind: KindI32, I32: v}

	case dtU64:
		v := make([]uint64, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = field.order.Uint64(buf[base : base+8])
		}
		return Samples{Kind: KindU64, U64: v}

	case dtI64:
		v := make([]int64, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = int64(field.order.Uint64(buf[base : base+8]))
		}
		return Samples{Kind: KindI64, I64: v}

	case dtF32:
		v := make([]float32, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = math.Float32frombits(field.order.Uint32(buf[base : base+4]))
		}
		return Samples{Kind: KindF32, F32: v}

	case dtF64:
		v := make([]float64, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = math.Float64frombits(field.order.Uint64(buf[base : base+8]))
		}
		return Samples{Kind: KindF64, F64: v}

	case dtString:
		v := make([]string, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			v[i] = storage.DecodeLatin1(buf[base : base+field.byteWidth])
		}
		return Samples{Kind: KindString, Str: v}

	case dtBytes:
		v := make([][]byte, recordCount)
		for i := range v {
			base := i*recordSize + field.byteOffset
			raw := make([]byte, field.byteWidth)
			copy(raw, buf[base:base+field.byteWidth])
			v[i] = raw
		}
		return Samples{Kind: KindBytes, Raw: v}

	default:
		return Samples{}
	}
}

// extractSubField pulls one sub-byte channel's values out of a parent byte
// column by shift-and-mask, widening to the narrowest unsigned Kind that
// holds sub.bitWidth bits.
func extractSubField(parent Samples, sub subField) Samples {
	mask := uint8((1 << uint(sub.bitWidth)) - 1)
	v := make([]uint8, len(parent.U8))
	for i, b := range parent.U8 {
		v[i] = (b >> uint(sub.bitOffset)) & mask
	}

	switch narrowestUnsignedKind(sub.bitWidth) {
	case KindU16:
		out := make([]uint16, len(v))
		for i, x := range v {
			out[i] = uint16(x)
		}
		return Samples{Kind: KindU16, U16: out}
	case KindU32:
		out := make([]uint32, len(v))
		for i, x := range v {
			out[i] = uint32(x)
		}
		return Samples{Kind: KindU32, U32: out}
	default:
		return Samples{Kind: KindU8, U8: v}
	}
}
