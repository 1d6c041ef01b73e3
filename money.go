package x402

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// USDCDecimals is the number of decimal places for USDC base units.
const USDCDecimals int32 = 6

// USDToBaseUnits converts a human-facing USD price string to an integer
// base-unit string for an asset with the given number of decimals. The
// conversion is exact: arbitrary-precision decimal arithmetic, rounding half
// away from zero on sub-unit remainders. This boundary feeds signed, binding
// authorizations, so no binary floating point is involved.
//
// Returns ErrInvalidPrice for non-numeric or negative input.
func USDToBaseUnits(usd string, decimals int32) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative decimals %d", ErrInvalidPrice, decimals)
	}

	d, err := decimal.NewFromString(strings.TrimSpace(usd))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrice, usd)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("%w: negative price %q", ErrInvalidPrice, usd)
	}

	return d.Shift(decimals).Round(0).BigInt().String(), nil
}

// BaseUnitsToUSD converts an integer base-unit string back to a USD price
// string. The fractional part is zero-padded to the asset's decimals, then
// trailing zeros are trimmed but never below two decimal places:
// base units "1" with 6 decimals is "0.000001", "1500000" is "1.50",
// "100000000" is "100.00". Exact inverse of USDToBaseUnits on its output grid.
//
// Returns ErrInvalidAmount unless the input is an unsigned decimal integer.
func BaseUnitsToUSD(units string, decimals int32) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}
	if !isUnsignedInteger(units) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, units)
	}

	d, err := decimal.NewFromString(units)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, units)
	}

	places := decimals
	if places < 2 {
		places = 2
	}
	fixed := d.Shift(-decimals).StringFixed(places)

	dot := strings.IndexByte(fixed, '.')
	whole, frac := fixed[:dot], fixed[dot+1:]
	frac = strings.TrimRight(frac, "0")
	for len(frac) < 2 {
		frac += "0"
	}
	return whole + "." + frac, nil
}

// isUnsignedInteger reports whether s is a non-empty run of ASCII digits,
// with no sign, decimal point, or whitespace.
func isUnsignedInteger(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
