package main

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// defaultDecimals matches the base-unit scale of the native currency.
const defaultDecimals = 10

var errInvalidAmount = errors.New("invalid amount")

// parseAmount converts a decimal string such as "12.5" into base units.
func parseAmount(s string, decimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", errInvalidAmount, s)
	}
	units := d.Shift(decimals)
	if !units.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", errInvalidAmount, s, decimals)
	}
	v, overflow := uint256.FromBig(units.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %q is out of range", errInvalidAmount, s)
	}
	return v, nil
}

// formatAmount renders base units as a decimal string.
func formatAmount(v *uint256.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -decimals).String()
}
