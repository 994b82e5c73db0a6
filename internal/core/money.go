// Package core provides money parsing and handling utilities.
//
// Amounts are decimal values with two fractional digits. Storage keeps them
// as integer cents; conversion in both directions is exact.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fractional digits kept for every amount.
const AmountPlaces = 2

// MaxAmount is the largest amount accepted anywhere: ten trillion. Sums of
// many maximal amounts still fit in int64 cents.
var MaxAmount = decimal.New(1, 13)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to a positive amount with half-up
// rounding on the third fractional digit.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Signs, exponents, zero, anything that rounds to zero and anything above
// MaxAmount are rejected.
//
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("12,344") -> 12.34
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = RoundAmount(d)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// RoundAmount rounds half away from zero to two places.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// ToCents returns the amount as integer cents. Amounts whose cents do not
// fit in an int64 are rejected rather than wrapped.
func ToCents(d decimal.Decimal) (int64, error) {
	cents := RoundAmount(d).Mul(hundred).BigInt()
	if !cents.IsInt64() {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d.String())
	}
	return cents.Int64(), nil
}

// FromCents builds an amount from integer cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -AmountPlaces)
}

// FormatAmount renders the amount with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPlaces)
}
