package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPriceInput is returned when any pricing factor is zero or negative.
var ErrInvalidPriceInput = errors.New("price inputs must be positive")

// CalculateTotalPrice multiplies the base price per guest by the style
// multiplier and the guest count.  Money is in cents and the multiplier
// in hundredths (150 = x1.50), so the product is exact; only a sub-cent
// remainder is rounded half-up.
func CalculateTotalPrice(baseCents, multiplier int64, guests int) (int64, error) {
	if baseCents <= 0 || multiplier <= 0 || guests <= 0 {
		return 0, ErrInvalidPriceInput
	}
	raw := baseCents * multiplier * int64(guests) // hundredths of a cent
	return (raw + 50) / 100, nil
}

// FormatCents renders an amount in cents with two decimals, e.g. 750000 -> "7500.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseCents parses a decimal amount such as "7500", "7500.5" or
// "7500.00" into cents.  More than two decimals is rejected.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents := int64(w)*100 + int64(f)
	if neg {
		cents = -cents
	}
	return cents, nil
}
