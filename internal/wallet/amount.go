package wallet

import (
	"math"

	"github.com/shopspring/decimal"
)

var maxMajor = decimal.New(math.MaxInt64/100, 0)

// ParseAmount converts a major-unit decimal string ("12.50") into minor units.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return MinorFromDecimal(d)
}

// MinorFromDecimal requires d > 0 with at most two significant fractional digits.
// Trailing zeros ("12.500") are accepted.
func MinorFromDecimal(d decimal.Decimal) (int64, error) {
	minor := d.Shift(2)
	if !d.IsPositive() || !minor.IsInteger() || d.GreaterThan(maxMajor) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// SignedMinorFromDecimal is MinorFromDecimal for non-zero values of either sign.
func SignedMinorFromDecimal(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		m, err := MinorFromDecimal(d.Neg())
		return -m, err
	}
	return MinorFromDecimal(d)
}

// FormatMinor renders minor units as a fixed two-decimal major amount.
func FormatMinor(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
