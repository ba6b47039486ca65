package pricefeed

import (
	"encoding/binary"
	"errors"
	"testing"

	"poolcore/native/pooling/wad"
)

func payload(magic, version, atype, ptype uint32, expo int32, price int64) []byte {
	buf := make([]byte, PriceLen)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], version)
	binary.LittleEndian.PutUint32(buf[8:12], atype)
	binary.LittleEndian.PutUint32(buf[12:16], ptype)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(expo))
	binary.LittleEndian.PutUint64(buf[20:28], 42) // publish slot
	binary.LittleEndian.PutUint64(buf[28:36], uint64(price))
	binary.LittleEndian.PutUint64(buf[36:44], 3) // confidence
	return buf
}

func valid(expo int32, price int64) []byte {
	return payload(Magic, Version, AccountTypePrice, PriceTypePrice, expo, price)
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice(valid(-2, 1234))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Price != 1234 || p.Exponent != -2 || p.PublishSlot != 42 || p.Confidence != 3 {
		t.Fatalf("unexpected fields: %+v", p)
	}

	// 1234 * 10^-2 = 12.34
	value, err := p.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	want, err := wad.NewDecimal(1234).DivInt(100)
	if err != nil {
		t.Fatalf("build expectation: %v", err)
	}
	if !value.Equal(want) {
		t.Fatalf("unexpected value: %s", value)
	}
}

func TestParsePricePositiveExponent(t *testing.T) {
	value, err := PriceValue(valid(3, 7))
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if !value.Equal(wad.NewDecimal(7_000)) {
		t.Fatalf("unexpected value: %s", value)
	}
}

func TestParsePriceRejections(t *testing.T) {
	cases := map[string][]byte{
		"short":          make([]byte, PriceLen-1),
		"bad magic":      payload(0xdeadbeef, Version, AccountTypePrice, PriceTypePrice, 0, 1),
		"bad version":    payload(Magic, Version+1, AccountTypePrice, PriceTypePrice, 0, 1),
		"product type":   payload(Magic, Version, AccountTypeProduct, PriceTypePrice, 0, 1),
		"unknown ptype":  payload(Magic, Version, AccountTypePrice, PriceTypeUnknown, 0, 1),
		"negative price": valid(0, -1),
		"zero price":     valid(0, 0),
	}
	for name, data := range cases {
		if _, err := ParsePrice(data); !errors.Is(err, ErrInvalidData) {
			t.Fatalf("%s: expected ErrInvalidData, got %v", name, err)
		}
	}
}

func TestParsePriceExponentOutOfRange(t *testing.T) {
	if _, err := PriceValue(valid(25, 1)); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected exponent range error, got %v", err)
	}
	if _, err := PriceValue(valid(-25, 1)); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected exponent range error, got %v", err)
	}
}
