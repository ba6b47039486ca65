// Package wad implements the two fixed-point numeric types the pooling
// engine is built on. Values are unsigned integers scaled by 10^18 (one
// "WAD"). Every operation is checked: on overflow or underflow it returns an
// error instead of wrapping, so results are bit-reproducible across
// re-execution. No floating point is used anywhere.
package wad

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Scale is the WAD scale factor, 10^18.
const Scale = 1_000_000_000_000_000_000

// PercentScaler converts whole percent to a scaled value (Scale / 100).
const PercentScaler = 10_000_000_000_000_000

// ScaledLen is the wire width of a scaled value: 16 bytes, little-endian.
const ScaledLen = 16

var (
	// ErrOverflow is returned when a checked operation exceeds the type's
	// magnitude bound or a conversion target.
	ErrOverflow = errors.New("wad: math overflow")
	// ErrUnderflow is returned when a checked subtraction would go negative.
	ErrUnderflow = errors.New("wad: math underflow")
)

var (
	scale     = uint256.NewInt(Scale)
	halfScale = uint256.NewInt(Scale / 2)

	// Decimal magnitude is capped at 2^192-1 so that the product of any two
	// in-range values still fits the 256-bit backing integer.
	maxDecimal = func() *uint256.Int {
		v := new(uint256.Int).Lsh(uint256.NewInt(1), 192)
		return v.SubUint64(v, 1)
	}()
	// Rate is capped at 2^128-1, matching its 16-byte wire encoding.
	maxRate = func() *uint256.Int {
		v := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
		return v.SubUint64(v, 1)
	}()
)

// Decimal is an unsigned WAD-scaled fixed-point value used for amounts,
// accrued interest, market values and reward indices. The zero value is 0.
type Decimal struct {
	v uint256.Int
}

// DecimalZero returns the Decimal 0.
func DecimalZero() Decimal { return Decimal{} }

// DecimalOne returns the Decimal 1.0.
func DecimalOne() Decimal {
	var d Decimal
	d.v.Set(scale)
	return d
}

// NewDecimal returns n as a Decimal (n * Scale).
func NewDecimal(n uint64) Decimal {
	var d Decimal
	d.v.SetUint64(n)
	d.v.Mul(&d.v, scale)
	return d
}

// DecimalFromScaled builds a Decimal directly from a scaled magnitude. It
// fails if the value exceeds the 2^192-1 bound.
func DecimalFromScaled(scaled *uint256.Int) (Decimal, error) {
	if scaled.Gt(maxDecimal) {
		return Decimal{}, ErrOverflow
	}
	var d Decimal
	d.v.Set(scaled)
	return d, nil
}

// DecimalFromScaledBytes decodes a 16-byte little-endian scaled value. The
// input must be exactly ScaledLen bytes.
func DecimalFromScaledBytes(b []byte) Decimal {
	var d Decimal
	d.v[0] = binary.LittleEndian.Uint64(b[0:8])
	d.v[1] = binary.LittleEndian.Uint64(b[8:16])
	return d
}

// PutScaledBytes writes the scaled value as 16 little-endian bytes. It fails
// with ErrOverflow if the value does not fit 128 bits.
func (d Decimal) PutScaledBytes(dst []byte) error {
	if d.v[2] != 0 || d.v[3] != 0 {
		return ErrOverflow
	}
	binary.LittleEndian.PutUint64(dst[0:8], d.v[0])
	binary.LittleEndian.PutUint64(dst[8:16], d.v[1])
	return nil
}

// Scaled returns a copy of the raw scaled magnitude.
func (d Decimal) Scaled() *uint256.Int {
	return new(uint256.Int).Set(&d.v)
}

// Add returns d + other.
func (d Decimal) Add(other Decimal) (Decimal, error) {
	var out Decimal
	if _, overflow := out.v.AddOverflow(&d.v, &other.v); overflow || out.v.Gt(maxDecimal) {
		return Decimal{}, ErrOverflow
	}
	return out, nil
}

// Sub returns d - other.
func (d Decimal) Sub(other Decimal) (Decimal, error) {
	var out Decimal
	if _, underflow := out.v.SubOverflow(&d.v, &other.v); underflow {
		return Decimal{}, ErrUnderflow
	}
	return out, nil
}

// Mul returns d * other, flooring the result to the WAD grid.
func (d Decimal) Mul(other Decimal) (Decimal, error) {
	return mulScaled(&d.v, &other.v)
}

// MulInt returns d * n.
func (d Decimal) MulInt(n uint64) (Decimal, error) {
	var out Decimal
	mult := uint256.NewInt(n)
	if _, overflow := out.v.MulOverflow(&d.v, mult); overflow || out.v.Gt(maxDecimal) {
		return Decimal{}, ErrOverflow
	}
	return out, nil
}

// MulRate returns d * r.
func (d Decimal) MulRate(r Rate) (Decimal, error) {
	return mulScaled(&d.v, &r.v)
}

// Div returns d / other, flooring the result to the WAD grid.
func (d Decimal) Div(other Decimal) (Decimal, error) {
	return divScaled(&d.v, &other.v)
}

// DivInt returns d / n.
func (d Decimal) DivInt(n uint64) (Decimal, error) {
	if n == 0 {
		return Decimal{}, ErrOverflow
	}
	var out Decimal
	out.v.Div(&d.v, uint256.NewInt(n))
	return out, nil
}

// DivRate returns d / r.
func (d Decimal) DivRate(r Rate) (Decimal, error) {
	return divScaled(&d.v, &r.v)
}

// FloorU64 converts to an unscaled integer, rounding toward zero.
func (d Decimal) FloorU64() (uint64, error) {
	var out uint256.Int
	out.Div(&d.v, scale)
	return fitU64(&out)
}

// CeilU64 converts to an unscaled integer, rounding away from zero.
func (d Decimal) CeilU64() (uint64, error) {
	var out uint256.Int
	if _, overflow := out.AddOverflow(&d.v, uint256.NewInt(Scale-1)); overflow {
		return 0, ErrOverflow
	}
	out.Div(&out, scale)
	return fitU64(&out)
}

// RoundU64 converts to an unscaled integer, rounding half away from zero.
func (d Decimal) RoundU64() (uint64, error) {
	var out uint256.Int
	if _, overflow := out.AddOverflow(&d.v, halfScale); overflow {
		return 0, ErrOverflow
	}
	out.Div(&out, scale)
	return fitU64(&out)
}

// AsRate reinterprets the same scaled magnitude as a Rate. It fails if the
// value exceeds the Rate bound.
func (d Decimal) AsRate() (Rate, error) {
	if d.v.Gt(maxRate) {
		return Rate{}, ErrOverflow
	}
	var r Rate
	r.v.Set(&d.v)
	return r, nil
}

// Cmp returns -1, 0 or +1 comparing d against other.
func (d Decimal) Cmp(other Decimal) int { return d.v.Cmp(&other.v) }

// IsZero reports whether d is exactly zero.
func (d Decimal) IsZero() bool { return d.v.IsZero() }

// Equal reports whether d and other hold the same scaled value.
func (d Decimal) Equal(other Decimal) bool { return d.v.Eq(&other.v) }

func (d Decimal) String() string { return formatScaled(&d.v) }

func mulScaled(a, b *uint256.Int) (Decimal, error) {
	var out Decimal
	if _, overflow := out.v.MulOverflow(a, b); overflow {
		return Decimal{}, ErrOverflow
	}
	out.v.Div(&out.v, scale)
	if out.v.Gt(maxDecimal) {
		return Decimal{}, ErrOverflow
	}
	return out, nil
}

func divScaled(a, b *uint256.Int) (Decimal, error) {
	if b.IsZero() {
		return Decimal{}, ErrOverflow
	}
	var out Decimal
	if _, overflow := out.v.MulOverflow(a, scale); overflow {
		return Decimal{}, ErrOverflow
	}
	out.v.Div(&out.v, b)
	if out.v.Gt(maxDecimal) {
		return Decimal{}, ErrOverflow
	}
	return out, nil
}

func fitU64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}

func formatScaled(v *uint256.Int) string {
	s := v.Dec()
	if len(s) <= 18 {
		s = strings.Repeat("0", 19-len(s)) + s
	}
	whole, frac := s[:len(s)-18], s[len(s)-18:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return fmt.Sprintf("%s.%s", whole, frac)
}
