// Package pricefeed parses oracle account payloads into WAD-scaled prices.
// Payloads are fixed-layout little-endian blobs published by an external
// price service; this package only validates and converts them.
package pricefeed

import (
	"encoding/binary"
	"errors"
	"fmt"

	"poolcore/native/pooling/wad"
)

// ErrInvalidData is returned for any payload that fails validation: bad
// magic, unsupported version, wrong account or price type, or a
// non-positive price.
var ErrInvalidData = errors.New("pricefeed: invalid oracle data")

const (
	// Magic marks a payload as originating from the oracle program.
	Magic = 0xa1b2c3d4
	// Version is the payload layout version this package understands.
	Version = 2
)

// Account types carried in the payload header.
const (
	AccountTypeUnknown uint32 = iota
	AccountTypeMapping
	AccountTypeProduct
	AccountTypePrice
)

// Price types. Only the direct price type is accepted.
const (
	PriceTypeUnknown uint32 = iota
	PriceTypePrice
)

// PriceLen is the fixed size of a price payload: header (magic, version,
// account type, price type), exponent, publish slot, aggregate price and
// confidence.
const PriceLen = 4 + 4 + 4 + 4 + 4 + 8 + 8 + 8

// Price is a decoded oracle price payload.
type Price struct {
	// Exponent scales the raw mantissa: value = Price * 10^Exponent.
	Exponent int32
	// PublishSlot is the slot the aggregate was computed in.
	PublishSlot uint64
	// Price is the raw aggregate mantissa.
	Price int64
	// Confidence is the aggregate confidence interval, in mantissa units.
	Confidence uint64
}

// ParsePrice validates a price payload and decodes its fields.
func ParsePrice(data []byte) (*Price, error) {
	if len(data) != PriceLen {
		return nil, fmt.Errorf("%w: price payload must be %d bytes, got %d", ErrInvalidData, PriceLen, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != Magic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrInvalidData, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidData, version)
	}
	if atype := binary.LittleEndian.Uint32(data[8:12]); atype != AccountTypePrice {
		return nil, fmt.Errorf("%w: account type %d is not a price account", ErrInvalidData, atype)
	}
	if ptype := binary.LittleEndian.Uint32(data[12:16]); ptype != PriceTypePrice {
		return nil, fmt.Errorf("%w: price type %d is not a direct price", ErrInvalidData, ptype)
	}
	p := &Price{
		Exponent:    int32(binary.LittleEndian.Uint32(data[16:20])),
		PublishSlot: binary.LittleEndian.Uint64(data[20:28]),
		Price:       int64(binary.LittleEndian.Uint64(data[28:36])),
		Confidence:  binary.LittleEndian.Uint64(data[36:44]),
	}
	if p.Price <= 0 {
		return nil, fmt.Errorf("%w: non-positive price %d", ErrInvalidData, p.Price)
	}
	return p, nil
}

// Value converts the decoded mantissa and exponent into a WAD-scaled price.
func (p *Price) Value() (wad.Decimal, error) {
	mantissa := wad.NewDecimal(uint64(p.Price))
	if p.Exponent >= 0 {
		unit, err := pow10(uint32(p.Exponent))
		if err != nil {
			return wad.Decimal{}, err
		}
		return mantissa.MulInt(unit)
	}
	unit, err := pow10(uint32(-p.Exponent))
	if err != nil {
		return wad.Decimal{}, err
	}
	return mantissa.DivInt(unit)
}

// PriceValue parses a payload and returns its WAD-scaled price in one step.
func PriceValue(data []byte) (wad.Decimal, error) {
	p, err := ParsePrice(data)
	if err != nil {
		return wad.Decimal{}, err
	}
	return p.Value()
}

func pow10(n uint32) (uint64, error) {
	if n > 19 {
		return 0, fmt.Errorf("%w: exponent magnitude %d out of range", ErrInvalidData, n)
	}
	out := uint64(1)
	for i := uint32(0); i < n; i++ {
		out *= 10
	}
	return out, nil
}
