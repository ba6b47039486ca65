package wad

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
)

func TestDecimalBasics(t *testing.T) {
	two := NewDecimal(2)
	three := NewDecimal(3)

	sum, err := two.Add(three)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !sum.Equal(NewDecimal(5)) {
		t.Fatalf("unexpected sum: %s", sum)
	}

	diff, err := three.Sub(two)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if !diff.Equal(DecimalOne()) {
		t.Fatalf("unexpected diff: %s", diff)
	}

	prod, err := two.Mul(three)
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	if !prod.Equal(NewDecimal(6)) {
		t.Fatalf("unexpected product: %s", prod)
	}

	quot, err := three.Div(two)
	if err != nil {
		t.Fatalf("div: %v", err)
	}
	if got := quot.Scaled().Uint64(); got != 1_500_000_000_000_000_000 {
		t.Fatalf("unexpected quotient scaled value: %d", got)
	}
}

func TestDecimalSubUnderflow(t *testing.T) {
	if _, err := DecimalZero().Sub(DecimalOne()); err != ErrUnderflow {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestDecimalBoundEnforced(t *testing.T) {
	top, err := DecimalFromScaled(maxDecimal)
	if err != nil {
		t.Fatalf("from scaled: %v", err)
	}
	if _, err := top.Add(DecimalOne()); err != ErrOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
	over := new(uint256.Int).AddUint64(maxDecimal, 1)
	if _, err := DecimalFromScaled(over); err != ErrOverflow {
		t.Fatalf("expected overflow on construction, got %v", err)
	}
}

func TestDecimalConversions(t *testing.T) {
	// 2.5
	d, err := NewDecimal(5).DivInt(2)
	if err != nil {
		t.Fatalf("div int: %v", err)
	}

	floor, err := d.FloorU64()
	if err != nil {
		t.Fatalf("floor: %v", err)
	}
	ceil, err := d.CeilU64()
	if err != nil {
		t.Fatalf("ceil: %v", err)
	}
	round, err := d.RoundU64()
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if floor != 2 || ceil != 3 || round != 3 {
		t.Fatalf("unexpected conversions: floor=%d ceil=%d round=%d", floor, ceil, round)
	}
}

func TestDecimalConversionOverflow(t *testing.T) {
	big, err := NewDecimal(math.MaxUint64).Add(DecimalOne())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := big.FloorU64(); err != ErrOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestRateDecimalInterconvert(t *testing.T) {
	half := RateFromPercent(50)
	if got := half.AsDecimal().Scaled().Uint64(); got != Scale/2 {
		t.Fatalf("unexpected scaled value: %d", got)
	}
	back, err := half.AsDecimal().AsRate()
	if err != nil {
		t.Fatalf("as rate: %v", err)
	}
	if !back.Equal(half) {
		t.Fatalf("round trip changed value: %s != %s", back, half)
	}
	// A Rate of 1.0 is represented identically to a Decimal of 1.0.
	if RateOne().AsDecimal().Cmp(DecimalOne()) != 0 {
		t.Fatalf("rate one and decimal one differ")
	}
}

func TestRatePow(t *testing.T) {
	two, err := RateOne().MulInt(2)
	if err != nil {
		t.Fatalf("mul int: %v", err)
	}
	cube, err := two.Pow(3)
	if err != nil {
		t.Fatalf("pow: %v", err)
	}
	if got := cube.AsDecimal(); !got.Equal(NewDecimal(8)) {
		t.Fatalf("unexpected power: %s", got)
	}
	one, err := two.Pow(0)
	if err != nil {
		t.Fatalf("pow zero: %v", err)
	}
	if !one.Equal(RateOne()) {
		t.Fatalf("x^0 should be one, got %s", one)
	}
}

func TestScaledBytesRoundTrip(t *testing.T) {
	d, err := NewDecimal(12345).DivInt(7)
	if err != nil {
		t.Fatalf("div int: %v", err)
	}
	var buf [ScaledLen]byte
	if err := d.PutScaledBytes(buf[:]); err != nil {
		t.Fatalf("put scaled bytes: %v", err)
	}
	if got := DecimalFromScaledBytes(buf[:]); !got.Equal(d) {
		t.Fatalf("round trip changed value: %s != %s", got, d)
	}
}

func TestPutScaledBytesRejectsWideValues(t *testing.T) {
	wide := new(uint256.Int).Lsh(uint256.NewInt(1), 130)
	d, err := DecimalFromScaled(wide)
	if err != nil {
		t.Fatalf("from scaled: %v", err)
	}
	var buf [ScaledLen]byte
	if err := d.PutScaledBytes(buf[:]); err != ErrOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	d, err := NewDecimal(5).DivInt(4)
	if err != nil {
		t.Fatalf("div int: %v", err)
	}
	if got := d.String(); got != "1.25" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := DecimalZero().String(); got != "0" {
		t.Fatalf("unexpected zero format: %q", got)
	}
}
