// Package money validates monetary amounts stored as NUMERIC(14,2).
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fraction digits persisted for an amount.
	Scale = 2
	// MaxIntegerDigits is the number of digits allowed left of the decimal point.
	MaxIntegerDigits = 12
)

var (
	ErrNotPositive = errors.New("amount must be greater than 0")
	ErrTooPrecise  = fmt.Errorf("amount must have at most %d decimal places", Scale)
	ErrTooLarge   = fmt.Errorf("amount must have at most %d integer digits", MaxIntegerDigits)
)

// Validate checks that amount is strictly positive and fits NUMERIC(14,2).
// It reads only the coefficient digits and the exponent, never rescaling,
// so extreme exponents such as 1e-1000000000 are rejected in constant time.
func Validate(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNotPositive
	}
	coef := amount.Coefficient().String()
	digits := strings.TrimRight(coef, "0")
	exp := int64(amount.Exponent()) + int64(len(coef)-len(digits))
	if exp < -Scale {
		return ErrTooPrecise
	}
	if int64(len(digits))+exp > MaxIntegerDigits {
		return ErrTooLarge
	}
	return nil
}

// Format renders amount with exactly two fraction digits.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(Scale)
}

// Sum adds amounts exactly. An empty input yields zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
