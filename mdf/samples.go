package mdf

import "fmt"

// Kind is the tag of a Samples variant, the finite set of dtypes this
// reader can decode a channel into.
type Kind int

const (
	KindU8 Kind = iota
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindString
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Samples is a tagged variant over one channel's decoded column. Exactly one
// of the typed slices is non-nil, selected by Kind.
type Samples struct {
	Kind Kind

	U8  []uint8
	U16 []uint16
	U32 []uint32
	U64 []uint64
	I8  []int8
	I16 []int16
	I32 []int32
	I64 []int64
	F32 []float32
	F64 []float64
	Str []string
	Raw [][]byte
}

// Len returns the number of samples, regardless of Kind.
func (s Samples) Len() int {
	switch s.Kind {
	case KindU8:
		return len(s.U8)
	case KindU16:
		return len(s.U16)
	case KindU32:
		return len(s.U32)
	case KindU64:
		return len(s.U64)
	case KindI8:
		return len(s.I8)
	case KindI16:
		return len(s.I16)
	case KindI32:
		return len(s.I32)
	case KindI64:
		return len(s.I64)
	case KindF32:
		return len(s.F32)
	case KindF64:
		return len(s.F64)
	case KindString:
		return len(s.Str)
	case KindBytes:
		return len(s.Raw)
	default:
		return 0
	}
}

// Float64 returns the i-th sample as a float64, regardless of the numeric
// storage Kind. It panics if Kind is KindString or KindBytes; callers must
// check Kind before converting non-numeric channels.
func (s Samples) Float64(i int) float64 {
	switch s.Kind {
	case KindU8:
		return float64(s.U8[i])
	case KindU16:
		return float64(s.U16[i])
	case KindU32:
		return float64(s.U32[i])
	case KindU64:
		return float64(s.U64[i])
	case KindI8:
		return float64(s.I8[i])
	case KindI16:
		return float64(s.I16[i])
	case KindI32:
		return float64(s.I32[i])
	case KindI64:
		return float64(s.I64[i])
	case KindF32:
		return float64(s.F32[i])
	case KindF64:
		return s.F64[i]
	default:
		panic(fmt.Sprintf("mdf: Float64 called on non-numeric Samples (kind=%s)", s.Kind))
	}
}

// F64Samples wraps a []float64 as a Samples value of KindF64.
func F64Samples(v []float64) Samples {
	return Samples{Kind: KindF64, F64: v}
}

// StringSamples wraps a []string as a Samples value of KindString.
func StringSamples(v []string) Samples {
	return Samples{Kind: KindString, Str: v}
}

// narrowestUnsignedKind returns the narrowest unsigned Kind that can hold a
// value of the given bit width, used by extractSubField to type a sub-byte
// channel's decoded column.
func narrowestUnsignedKind(bitWidth int) Kind {
	switch {
	case bitWidth <= 8:
		return KindU8
	case bitWidth <= 16:
		return KindU16
	default:
		return KindU32
	}
}
