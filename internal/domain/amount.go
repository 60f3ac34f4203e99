package domain

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal digits an Amount keeps
const AmountScale = 4

// Amount is a non-negative money value with 4 decimal digits of precision,
// stored as a count of ten-thousandths.
//
// Add does not check for overflow. math.MaxUint64 ten-thousandths is roughly
// 1.8e15 currency units, which no realistic balance approaches.
type Amount uint64

// ZeroAmount is the additive identity
const ZeroAmount Amount = 0

var maxAmount = new(big.Int).SetUint64(math.MaxUint64)

// AmountFromDecimal converts a decimal value into an Amount, truncating anything
// past the 4th decimal digit. Negative and out-of-range values are rejected.
func AmountFromDecimal(value decimal.Decimal) (Amount, error) {
	if value.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, value)
	}

	units := value.Shift(AmountScale).Truncate(0).BigInt()
	if units.Cmp(maxAmount) > 0 {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, value)
	}

	return Amount(units.Uint64()), nil
}

// AmountFromFloat converts a float at the input boundary. The float is read
// through its shortest decimal representation, so 12345.67891 becomes
// 123456789 ten-thousandths rather than a value skewed by binary rounding.
func AmountFromFloat(value float64) (Amount, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrInvalidAmount, value)
	}

	return AmountFromDecimal(decimal.NewFromFloat(value))
}

// ParseAmount parses a decimal string such as "2.5" or "0.0001"
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	return AmountFromDecimal(value)
}

// Decimal returns the exact decimal value of the amount
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -AmountScale)
}

// String renders the amount with exactly 4 decimal digits
func (a Amount) String() string {
	return a.Decimal().StringFixed(AmountScale)
}

// MarshalText implements encoding.TextMarshaler
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}

	*a = parsed
	return nil
}

// Add returns the exact sum of a and b
func (a Amount) Add(b Amount) Amount {
	return a + b
}

// CheckedSub returns a - b, or false when b is larger than a
func (a Amount) CheckedSub(b Amount) (Amount, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// SaturatingSub returns a - b, floored at zero
func (a Amount) SaturatingSub(b Amount) Amount {
	if b > a {
		return 0
	}
	return a - b
}

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or greater than b
func (a Amount) Cmp(b Amount) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// LessThan reports whether a < b
func (a Amount) LessThan(b Amount) bool {
	return a < b
}

// IsZero reports whether the amount is zero
func (a Amount) IsZero() bool {
	return a == 0
}

// MinAmount returns the smaller of a and b
func MinAmount(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}
