package payment

import (
	"math"
	"strings"
)

// MinorToMajor converts integer minor units (cents) into a decimal major-unit amount.
// Only the intent-creation request carries major units.
func MinorToMajor(cents int64) float64 {
	return float64(cents) / 100
}

// MajorToMinor converts a decimal major-unit amount back into minor units, rounding to the nearest cent.
func MajorToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// NormalizeCurrency returns the 3-letter upper-case ISO code, or "" if the input is not one.
func NormalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) != 3 {
		return ""
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return c
}
