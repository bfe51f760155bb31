// Package fixedpoint implements scaled-integer arithmetic for stroop amounts.
// All monetary and share quantities are unsigned integers scaled by 10^7, the
// precision of the underlying asset. Ratio computations widen to 128 bits
// before dividing so intermediates never overflow.
package fixedpoint

import (
	"math/bits"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Unit is one display unit of the asset expressed in stroops (10^7).
const Unit uint64 = 10_000_000

// Decimals is the number of decimal places carried by a stroop amount.
const Decimals = 7

var (
	// ErrOverflow is returned when a quotient does not fit in 64 bits.
	ErrOverflow = errors.New("fixedpoint: quotient overflows uint64")
	// ErrDivisionByZero is returned on a zero divisor.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
)

// MulDiv computes floor(a * b / div) with a 128-bit intermediate product.
// Division is truncating, so callers receive the floor of their entitlement.
func MulDiv(a, b, div uint64) (uint64, error) {
	if div == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, div)
	return q, nil
}

// ParseAmount converts a decimal asset amount string (e.g. "100.5") into
// stroops. Amounts with more than seven decimal places or outside the uint64
// range are rejected.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parse amount %q", s)
	}
	if d.IsNegative() {
		return 0, errors.Errorf("amount %q is negative", s)
	}
	scaled := d.Shift(Decimals)
	if !scaled.IsInteger() {
		return 0, errors.Errorf("amount %q has more than %d decimal places", s, Decimals)
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, errors.Errorf("amount %q out of range", s)
	}
	return bi.Uint64(), nil
}

// FormatAmount renders stroops as a decimal asset amount string.
func FormatAmount(stroops uint64) string {
	return decimal.NewFromUint64(stroops).Shift(-Decimals).String()
}
