/*
This file contains conversions between base-unit token amounts and their
human-readable decimal form. Ledger tokens carry a fixed number of decimals
(7 for the native and stable assets).
*/

package utils

import (
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// DefaultTokenDecimals is the decimals of the assets in the deployment tables.
const DefaultTokenDecimals = 7

var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrConversionFailed = errors.New("conversion failed")
)

func decimalFactor(precision int) (sdkmath.LegacyDec, error) {
	if precision < 0 || precision > 18 {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	factor := sdkmath.LegacyNewDec(1)
	for i := 0; i < precision; i++ {
		factor = factor.Mul(sdkmath.LegacyNewDec(10))
	}
	return factor, nil
}

// FormatAmount renders a base-unit amount with precision decimals, dropping
// trailing zeros.
func FormatAmount(amount sdkmath.Int, precision int) (string, error) {
	factor, err := decimalFactor(precision)
	if err != nil {
		return "", err
	}
	if amount.IsNil() {
		return "", ErrAmountNil
	}
	if amount.IsNegative() {
		return "", ErrAmountNegative
	}

	s := sdkmath.LegacyNewDecFromInt(amount).Quo(factor).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s, nil
}

// ParseAmount converts a decimal string to base units. Digits beyond
// precision are rejected rather than truncated.
func ParseAmount(s string, precision int) (sdkmath.Int, error) {
	factor, err := decimalFactor(precision)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	dec, err := sdkmath.LegacyNewDecFromStr(strings.TrimSpace(s))
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %q: %w", ErrConversionFailed, s, err)
	}
	if dec.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}

	scaled := dec.Mul(factor)
	if !scaled.Equal(scaled.TruncateDec()) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %q has more than %d decimals", ErrConversionFailed, s, precision)
	}
	return scaled.TruncateInt(), nil
}
