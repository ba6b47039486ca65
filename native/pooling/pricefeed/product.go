package pricefeed

import (
	"encoding/binary"
	"fmt"
)

// QuoteCurrencyAttr is the product attribute naming the currency a price is
// quoted in.
const QuoteCurrencyAttr = "quote_currency"

// productHeaderLen covers magic, version, account type and the attribute
// region length.
const productHeaderLen = 16

// QuoteCurrency extracts the quote-currency attribute from a product
// payload. The attribute region is a sequence of length-prefixed key/value
// string pairs following the header.
func QuoteCurrency(data []byte) ([32]byte, error) {
	var out [32]byte
	if len(data) < productHeaderLen {
		return out, fmt.Errorf("%w: product payload too short", ErrInvalidData)
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != Magic {
		return out, fmt.Errorf("%w: bad magic %#x", ErrInvalidData, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != Version {
		return out, fmt.Errorf("%w: unsupported version %d", ErrInvalidData, version)
	}
	if atype := binary.LittleEndian.Uint32(data[8:12]); atype != AccountTypeProduct {
		return out, fmt.Errorf("%w: account type %d is not a product account", ErrInvalidData, atype)
	}
	attrLen := int(binary.LittleEndian.Uint32(data[12:16]))
	if attrLen > len(data)-productHeaderLen {
		return out, fmt.Errorf("%w: attribute region overruns payload", ErrInvalidData)
	}

	attrs := data[productHeaderLen : productHeaderLen+attrLen]
	for len(attrs) > 0 {
		key, rest, err := readString(attrs)
		if err != nil {
			return out, err
		}
		value, rest, err := readString(rest)
		if err != nil {
			return out, err
		}
		if key == QuoteCurrencyAttr {
			if len(value) > len(out) {
				return out, fmt.Errorf("%w: quote currency %q too long", ErrInvalidData, value)
			}
			copy(out[:], value)
			return out, nil
		}
		attrs = rest
	}
	return out, fmt.Errorf("%w: product has no %s attribute", ErrInvalidData, QuoteCurrencyAttr)
}

func readString(b []byte) (string, []byte, error) {
	if len(b) == 0 {
		return "", nil, fmt.Errorf("%w: truncated attribute string", ErrInvalidData)
	}
	n := int(b[0])
	if n > len(b)-1 {
		return "", nil, fmt.Errorf("%w: truncated attribute string", ErrInvalidData)
	}
	return string(b[1 : 1+n]), b[1+n:], nil
}
