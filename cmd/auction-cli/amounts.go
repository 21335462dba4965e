package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// amountDecimals is the number of fractional digits of the display unit.
const amountDecimals = 9

// parseAmount converts a display amount such as "1.5" into base units.
func parseAmount(input string) (*big.Int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative")
	}
	scaled := value.Shift(amountDecimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", input, amountDecimals)
	}
	return scaled.BigInt(), nil
}

// parseUintAmount is parseAmount bounded to uint64, the width of bid amounts.
func parseUintAmount(input string) (uint64, error) {
	value, err := parseAmount(input)
	if err != nil {
		return 0, err
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("amount %q exceeds the maximum bid", input)
	}
	return value.Uint64(), nil
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -amountDecimals).String()
}

func formatUintAmount(v uint64) string {
	return formatAmount(new(big.Int).SetUint64(v))
}
