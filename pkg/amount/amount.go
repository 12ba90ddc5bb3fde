// Package amount converts between display-unit token amounts and the integer
// base-unit quantities submitted on chain.
package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the base-unit exponent of the token: 1 AI3 = 10^18 Shannons
const Decimals = 18

var scale = decimal.New(1, Decimals)

// Parse parses a display-unit amount and verifies it is positive
func Parse(display string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(display)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %v", display, err)
	}
	if d.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("amount must be positive, got %s", d)
	}
	return d, nil
}

// ToBaseUnits converts a display-unit amount to an integer base-unit quantity.
// The scaled amount must be representable exactly as an integer; amounts with
// more than 18 fractional digits are rejected rather than truncated.
func ToBaseUnits(display string) (*big.Int, error) {
	d, err := Parse(display)
	if err != nil {
		return nil, err
	}
	scaled := d.Mul(scale)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d fractional digits", d, Decimals)
	}
	return scaled.BigInt(), nil
}

// FromBaseUnits converts an integer base-unit quantity back to display units
func FromBaseUnits(base *big.Int) string {
	return decimal.NewFromBigInt(base, -Decimals).String()
}

// PercentOf returns the given percentage of a display-unit balance
func PercentOf(balance string, percent int) (string, error) {
	if percent <= 0 || percent > 100 {
		return "", fmt.Errorf("percent must be in (0, 100], got %d", percent)
	}
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return "", fmt.Errorf("invalid balance %q: %v", balance, err)
	}
	return d.Mul(decimal.New(int64(percent), -2)).String(), nil
}

// AtLeast reports whether display-unit amount a is greater than or equal to b
func AtLeast(a, b string) (bool, error) {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return false, fmt.Errorf("invalid amount %q: %v", a, err)
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return false, fmt.Errorf("invalid amount %q: %v", b, err)
	}
	return da.GreaterThanOrEqual(db), nil
}
