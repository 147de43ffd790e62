package mdf

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mdfreader/mdf3/diagnostics"
	"github.com/mdfreader/mdf3/storage"
)

// readConversion reads the CC block at pointer (zero meaning absent, which
// is identity) and returns the pending descriptor plus the declared
// physical unit. A type-0 conversion with P1 in {+0,-0} and P2 == 1.0 is a
// no-op and is dropped here: it returns a nil descriptor so the raw dtype
// is preserved untouched.
func readConversion(r *storage.Reader, pointer uint32, sink diagnostics.Sink) (*ConversionDescriptor, string, error) {
	if pointer == 0 {
		return nil, "", nil
	}

	var cc conversionRaw
	if err := r.ReadStruct(int64(pointer), &cc); err != nil {
		return nil, "", errors.Wrapf(err, "mdf: reading CC block at offset %d", pointer)
	}
	unit := storage.DecodeLatin1(cc.PhysicalUnit[:])
	payloadOffset := int64(pointer) + conversionBlockSize
	n := int(cc.NumberOfValuePairs)

	switch int(cc.ConversionType) {
	case ccIdentity:
		return nil, unit, nil

	case ccLinear:
		var p struct{ P1, P2 float64 }
		if err := r.ReadStruct(payloadOffset, &p); err != nil {
			return nil, "", errors.Wrap(err, "mdf: reading linear conversion parameters")
		}
		if p.P2 == 1.0 && (p.P1 == 0.0 || p.P1 == math.Copysign(0, -1)) {
			return nil, unit, nil
		}
		return &ConversionDescriptor{Type: ccLinear, Linear: LinearParams{P1: p.P1, P2: p.P2}}, unit, nil

	case ccTableInterp, ccTable:
		pairs, err := readTablePairs(r, payloadOffset, n)
		if err != nil {
			return nil, "", err
		}
		return &ConversionDescriptor{Type: int(cc.ConversionType), Table: pairs}, unit, nil

	case ccPolynomial:
		var p PolynomialParams
		if err := r.ReadStruct(payloadOffset, &p); err != nil {
			return nil, "", errors.Wrap(err, "mdf: reading polynomial conversion parameters")
		}
		return &ConversionDescriptor{Type: ccPolynomial, Polynomial: p}, unit, nil

	case ccRational:
		var p RationalParams
		if err := r.ReadStruct(payloadOffset, &p); err != nil {
			return nil, "", errors.Wrap(err, "mdf: reading rational conversion parameters")
		}
		return &ConversionDescriptor{Type: ccRational, Rational: p}, unit, nil

	case ccExponential, ccLogarithmic:
		var p ExpLogParams
		if err := r.ReadStruct(payloadOffset, &p); err != nil {
			return nil, "", errors.Wrap(err, "mdf: reading exponential/logarithmic conversion parameters")
		}
		return &ConversionDescriptor{Type: int(cc.ConversionType), ExpLog: p}, unit, nil

	case ccTextFormula:
		raw, err := r.ReadBytes(payloadOffset, 256)
		if err != nil {
			return nil, "", errors.Wrap(err, "mdf: reading text formula")
		}
		return &ConversionDescriptor{Type: ccTextFormula, TextFormula: storage.DecodeLatin1(raw)}, unit, nil

	case ccIntToText:
		pairs := make([]IntTextPair, 0, n)
		for i := 0; i < n; i++ {
			var p struct {
				Int  float64
				Text [32]byte
			}
			if err := r.ReadStruct(payloadOffset+int64(i)*40, &p); err != nil {
				return nil, "", errors.Wrap(err, "mdf: reading int-to-text conversion pair")
			}
			pairs = append(pairs, IntTextPair{Int: p.Int, Text: storage.DecodeLatin1(p.Text[:])})
		}
		return &ConversionDescriptor{Type: ccIntToText, IntToText: pairs}, unit, nil

	case ccRangeToText:
		triples := make([]RangeTextTriple, 0, n)
		for i := 0; i < n; i++ {
			var t struct {
				Lower, Upper float64
				TextPointer  uint32
			}
			if err := r.ReadStruct(payloadOffset+int64(i)*20, &t); err != nil {
				return nil, "", errors.Wrap(err, "mdf: reading range-to-text conversion triple")
			}
			text, err := r.ReadVariableBlock(int64(t.TextPointer), "TX")
			if err != nil {
				return nil, "", errors.Wrap(err, "mdf: reading range-to-text label")
			}
			triples = append(triples, RangeTextTriple{Lower: t.Lower, Upper: t.Upper, Text: string(text)})
		}
		return &ConversionDescriptor{Type: ccRangeToText, RangeToText: triples}, unit, nil

	default:
		sink.Warn(diagnostics.Warning{
			Kind:    diagnostics.UnknownConversionType,
			Message: errors.Errorf("conversion type %d is not one of the known types", cc.ConversionType).Error(),
		})
		return nil, unit, nil
	}
}

func readTablePairs(r *storage.Reader, offset int64, n int) ([]TablePair, error) {
	pairs := make([]TablePair, 0, n)
	for i := 0; i < n; i++ {
		var p TablePair
		if err := r.ReadStruct(offset+int64(i)*16, &p); err != nil {
			return nil, errors.Wrap(err, "mdf: reading table conversion pair")
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// convert applies conv to raw, returning the physical Samples. sink receives
// non-fatal warnings for the boundary conditions below; in every warning
// case the raw array is returned unchanged.
func convert(raw Samples, conv *ConversionDescriptor, sink diagnostics.Sink) Samples {
	if conv == nil {
		return raw
	}

	switch conv.Type {
	case ccLinear:
		return mapFloat64(raw, func(x float64) float64 {
			return x*conv.Linear.P2 + conv.Linear.P1
		})

	case ccTableInterp:
		return convertTable(raw, conv.Table, sink, true)

	case ccTable:
		return convertTable(raw, conv.Table, sink, false)

	case ccPolynomial:
		return mapFloat64(raw, func(x float64) float64 {
			p := conv.Polynomial
			denom := p.P3*(x-p.P5-p.P6) - p.P1
			if denom == 0 {
				return math.NaN()
			}
			return (p.P2 - p.P4*(x-p.P5-p.P6)) / denom
		})

	case ccRational:
		return mapFloat64(raw, func(x float64) float64 {
			p := conv.Rational
			num := p.P1*x*x + p.P2*x + p.P3
			denom := p.P4*x*x + p.P5*x + p.P6
			if denom == 0 {
				return math.NaN()
			}
			return num / denom
		})

	case ccExponential:
		return convertExpLog(raw, conv.ExpLog, math.Exp, sink)

	case ccLogarithmic:
		return convertExpLog(raw, conv.ExpLog, math.Log, sink)

	case ccTextFormula:
		fn, err := parseFormula(conv.TextFormula)
		if err != nil {
			sink.Warn(diagnostics.Warning{Kind: diagnostics.UnsupportedFormula, Message: err.Error()})
			return raw
		}
		return mapFloat64(raw, fn)

	case ccIntToText:
		return mapToString(raw, func(x float64) string {
			for _, p := range conv.IntToText {
				if p.Int == x {
					return p.Text
				}
			}
			return ""
		})

	case ccRangeToText:
		return mapToString(raw, func(x float64) string {
			defaultText := ""
			if len(conv.RangeToText) > 0 {
				defaultText = conv.RangeToText[0].Text
			}
			for _, t := range conv.RangeToText[1:] {
				if x >= t.Lower && x <= t.Upper {
					return t.Text
				}
			}
			return defaultText
		})

	default:
		return raw
	}
}

func mapFloat64(raw Samples, fn func(float64) float64) Samples {
	n := raw.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = fn(raw.Float64(i))
	}
	return F64Samples(out)
}

func mapToString(raw Samples, fn func(float64) string) Samples {
	n := raw.Len()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = fn(raw.Float64(i))
	}
	return StringSamples(out)
}

// convertTable implements conversion types 1 (interpolation) and 2
// (nearest-neighbour table). Both require a strictly
// increasing int[]; when it isn't, the raw array is returned with a
// NonIncreasingInterpolation warning, regardless of which of the two types
// was requested (matching the source's shared implementation for both).
func convertTable(raw Samples, table []TablePair, sink diagnostics.Sink, interpolate bool) Samples {
	if !strictlyIncreasing(table) {
		sink.Warn(diagnostics.Warning{
			Kind:    diagnostics.NonIncreasingInterpolation,
			Message: "table conversion requires a strictly increasing int column",
		})
		return raw
	}

	if interpolate {
		return mapFloat64(raw, func(x float64) float64 { return interpLookup(table, x) })
	}
	return mapFloat64(raw, func(x float64) float64 { return nearestLookup(table, x) })
}

func strictlyIncreasing(table []TablePair) bool {
	for i := 1; i < len(table); i++ {
		if table[i].Int <= table[i-1].Int {
			return false
		}
	}
	return true
}

func interpLookup(table []TablePair, x float64) float64 {
	if len(table) == 0 {
		return x
	}
	if x <= table[0].Int {
		return table[0].Phys
	}
	last := table[len(table)-1]
	if x >= last.Int {
		return last.Phys
	}
	for i := 1; i < len(table); i++ {
		if x <= table[i].Int {
			lo, hi := table[i-1], table[i]
			frac := (x - lo.Int) / (hi.Int - lo.Int)
			return lo.Phys + frac*(hi.Phys-lo.Phys)
		}
	}
	return last.Phys
}

func nearestLookup(table []TablePair, x float64) float64 {
	best := 0
	bestDist := math.Abs(table[0].Int - x)
	for i := 1; i < len(table); i++ {
		d := math.Abs(table[i].Int - x)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return table[best].Phys
}

// convertExpLog implements conversion types 7/8: two branches
// selected by which of P1/P4/P5 is zero, otherwise an UnrepresentableConversion
// warning and the raw array.
func convertExpLog(raw Samples, p ExpLogParams, fn func(float64) float64, sink diagnostics.Sink) Samples {
	switch {
	case p.P4 == 0 && p.P1 != 0 && p.P2 != 0:
		return mapFloat64(raw, func(x float64) float64 {
			return fn(((x-p.P7)*p.P6-p.P3)/p.P1) / p.P2
		})
	case p.P1 == 0 && p.P4 != 0 && p.P5 != 0:
		return mapFloat64(raw, func(x float64) float64 {
			return fn((p.P3/(x-p.P7)-p.P6)/p.P4) / p.P5
		})
	default:
		sink.Warn(diagnostics.Warning{
			Kind:    diagnostics.UnrepresentableConversion,
			Message: "exponential/logarithmic conversion parameters satisfy neither supported branch",
		})
		return raw
	}
}
