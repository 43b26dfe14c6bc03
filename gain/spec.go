// Package gain converts between decibel gain values and the fixed-point
// register codes the TLV320DAC3100 volume registers expect.
//
// Two kinds of mapping exist on this chip:
//
//   - affine: a closed-form linear scale (the DAC channel volume registers
//     use 0.5 dB per code over -63.5..24 dB, encoded as a signed 8-bit value;
//     the headphone driver PGA uses 1 dB per code over 0..9 dB)
//   - table: the analog headphone/speaker volume curve from datasheet
//     Table 6-24, which is piecewise (linear, curved, then a flat floor)
//     and therefore not invertible in closed form
//
// All conversions clamp rather than fail: the hardware has no error channel
// for an out-of-range register write, so correctness is expressed through
// saturation and the round-trip properties exercised by the tests.
package gain

import (
	"math"
	"sort"
)

// Entry is one (register code, dB) sample of a table-defined gain curve.
type Entry struct {
	Code int
	DB   float64
}

// Spec describes one controllable gain quantity: its dB range, its integer
// code domain, and how dB maps to codes.
//
// If Table is nil the mapping is affine: code = round(dB * CodesPerDB),
// clamped into [MinCode, MaxCode] in the integer domain (never relying on
// post-truncation wraparound). If Table is non-nil it must be sorted by
// code ascending with a non-increasing dB column; CodesPerDB is ignored.
type Spec struct {
	MinDB float64
	MaxDB float64

	MinCode int
	MaxCode int

	// Bits and Signed describe the register's wire representation.
	Bits   int
	Signed bool

	CodesPerDB float64
	Table      []Entry
}

// ClampDB saturates db into the spec's engineering-unit range.
// Out-of-range requests are not errors.
func (s Spec) ClampDB(db float64) float64 {
	if db < s.MinDB {
		return s.MinDB
	}
	if db > s.MaxDB {
		return s.MaxDB
	}
	return db
}

// ClampCode saturates code into the spec's code domain.
func (s Spec) ClampCode(code int) int {
	if code < s.MinCode {
		return s.MinCode
	}
	if code > s.MaxCode {
		return s.MaxCode
	}
	return code
}

// DBToCode converts a dB value to the register code for this quantity.
//
// The dB value is clamped into range first. For affine specs the result is
// the rounded scaled value clamped into the code domain. For table specs the
// result is the lowest code whose table dB is not greater than the requested
// dB; this tie-break is load-bearing: every dB value in the table's flat
// floor resolves to the first code of the floor run, not an arbitrary member.
func (s Spec) DBToCode(db float64) int {
	db = s.ClampDB(db)

	if s.Table == nil {
		return s.ClampCode(int(math.Round(db * s.CodesPerDB)))
	}

	// The dB column is non-increasing in code order, so the predicate
	// "table dB <= db" is false for a prefix and true for the rest.
	// sort.Search finds the boundary: the lowest code at or below the
	// requested loudness.
	i := sort.Search(len(s.Table), func(i int) bool {
		return s.Table[i].DB <= db
	})
	if i == len(s.Table) {
		i = len(s.Table) - 1
	}
	return s.Table[i].Code
}

// CodeToDB converts a register code back to dB.
//
// The code is clamped into the code domain first. For affine specs this is
// the exact closed-form inverse. For table specs it is a direct index; this
// direction is always single-valued even though the forward direction is not
// (every floor code decodes to the same minimum dB).
func (s Spec) CodeToDB(code int) float64 {
	code = s.ClampCode(code)

	if s.Table == nil {
		return float64(code) / s.CodesPerDB
	}
	return s.Table[code-s.Table[0].Code].DB
}

// RegisterByte returns the wire representation of a code for this spec:
// the clamped code truncated to the register's bit width, with signed codes
// reinterpreted two's-complement.
func (s Spec) RegisterByte(code int) byte {
	code = s.ClampCode(code)
	mask := (1 << s.Bits) - 1
	return byte(code & mask)
}

// CodeFromRegister decodes a register byte back to the integer code domain,
// sign-extending when the spec is signed.
func (s Spec) CodeFromRegister(b byte) int {
	code := int(b) & ((1 << s.Bits) - 1)
	if s.Signed && code >= 1<<(s.Bits-1) {
		code -= 1 << s.Bits
	}
	return s.ClampCode(code)
}
