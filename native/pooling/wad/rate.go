package wad

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Rate is a WAD-scaled ratio or percentage. It shares the Decimal wire
// representation (a Rate of 1.0 encodes identically to a Decimal of 1.0) but
// its magnitude is bounded at 2^128-1.
type Rate struct {
	v uint256.Int
}

// RateZero returns the Rate 0.
func RateZero() Rate { return Rate{} }

// RateOne returns the Rate 1.0.
func RateOne() Rate {
	var r Rate
	r.v.Set(scale)
	return r
}

// RateFromPercent returns p% as a Rate.
func RateFromPercent(p uint64) Rate {
	var r Rate
	r.v.SetUint64(p)
	r.v.Mul(&r.v, uint256.NewInt(PercentScaler))
	return r
}

// RateFromScaled builds a Rate directly from a scaled magnitude.
func RateFromScaled(scaled *uint256.Int) (Rate, error) {
	if scaled.Gt(maxRate) {
		return Rate{}, ErrOverflow
	}
	var r Rate
	r.v.Set(scaled)
	return r, nil
}

// RateFromScaledBytes decodes a 16-byte little-endian scaled value.
func RateFromScaledBytes(b []byte) Rate {
	var r Rate
	r.v[0] = binary.LittleEndian.Uint64(b[0:8])
	r.v[1] = binary.LittleEndian.Uint64(b[8:16])
	return r
}

// PutScaledBytes writes the scaled value as 16 little-endian bytes.
func (r Rate) PutScaledBytes(dst []byte) error {
	binary.LittleEndian.PutUint64(dst[0:8], r.v[0])
	binary.LittleEndian.PutUint64(dst[8:16], r.v[1])
	return nil
}

// Scaled returns a copy of the raw scaled magnitude.
func (r Rate) Scaled() *uint256.Int {
	return new(uint256.Int).Set(&r.v)
}

// Add returns r + other.
func (r Rate) Add(other Rate) (Rate, error) {
	var out Rate
	if _, overflow := out.v.AddOverflow(&r.v, &other.v); overflow || out.v.Gt(maxRate) {
		return Rate{}, ErrOverflow
	}
	return out, nil
}

// Sub returns r - other.
func (r Rate) Sub(other Rate) (Rate, error) {
	var out Rate
	if _, underflow := out.v.SubOverflow(&r.v, &other.v); underflow {
		return Rate{}, ErrUnderflow
	}
	return out, nil
}

// Mul returns r * other, flooring the result to the WAD grid.
func (r Rate) Mul(other Rate) (Rate, error) {
	return rateMulScaled(&r.v, &other.v)
}

// MulInt returns r * n.
func (r Rate) MulInt(n uint64) (Rate, error) {
	var out Rate
	if _, overflow := out.v.MulOverflow(&r.v, uint256.NewInt(n)); overflow || out.v.Gt(maxRate) {
		return Rate{}, ErrOverflow
	}
	return out, nil
}

// DivInt returns r / n, flooring.
func (r Rate) DivInt(n uint64) (Rate, error) {
	if n == 0 {
		return Rate{}, ErrOverflow
	}
	var out Rate
	out.v.Div(&r.v, uint256.NewInt(n))
	return out, nil
}

// Div returns r / other.
func (r Rate) Div(other Rate) (Rate, error) {
	if other.v.IsZero() {
		return Rate{}, ErrOverflow
	}
	var out Rate
	if _, overflow := out.v.MulOverflow(&r.v, scale); overflow {
		return Rate{}, ErrOverflow
	}
	out.v.Div(&out.v, &other.v)
	if out.v.Gt(maxRate) {
		return Rate{}, ErrOverflow
	}
	return out, nil
}

// Pow raises r to an integer power by binary exponentiation. Used for
// compounding a per-slot rate over elapsed slots.
func (r Rate) Pow(exp uint64) (Rate, error) {
	result := RateOne()
	base := r
	var err error
	for exp > 0 {
		if exp&1 == 1 {
			if result, err = result.Mul(base); err != nil {
				return Rate{}, err
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, err = base.Mul(base); err != nil {
				return Rate{}, err
			}
		}
	}
	return result, nil
}

// AsDecimal reinterprets the same scaled magnitude as a Decimal.
func (r Rate) AsDecimal() Decimal {
	var d Decimal
	d.v.Set(&r.v)
	return d
}

// Cmp returns -1, 0 or +1 comparing r against other.
func (r Rate) Cmp(other Rate) int { return r.v.Cmp(&other.v) }

// IsZero reports whether r is exactly zero.
func (r Rate) IsZero() bool { return r.v.IsZero() }

// Equal reports whether r and other hold the same scaled value.
func (r Rate) Equal(other Rate) bool { return r.v.Eq(&other.v) }

func (r Rate) String() string { return formatScaled(&r.v) }

func rateMulScaled(a, b *uint256.Int) (Rate, error) {
	var out Rate
	if _, overflow := out.v.MulOverflow(a, b); overflow {
		return Rate{}, ErrOverflow
	}
	out.v.Div(&out.v, scale)
	if out.v.Gt(maxRate) {
		return Rate{}, ErrOverflow
	}
	return out, nil
}
