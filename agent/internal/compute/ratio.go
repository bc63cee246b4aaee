package compute

import (
	"math"
	"strconv"
	"strings"
)

// DefaultLabel is the first field of the ratio row appended to a summary.
const DefaultLabel = "Integrity (J/B)"

// Ratio returns b/a. A zero denominator yields 0 rather than an infinity.
func Ratio(a, b float64) float64 {
	if a == 0 {
		return 0
	}
	return b / a
}

// FormatRatio renders v as the shortest decimal that round-trips. Integral
// values keep a trailing ".0" and very large or very small magnitudes switch
// to exponent form (1e+16, 5e-05).
//
// The zero-denominator fallback is written as a bare "0"; use FormatResult
// when the caller knows whether the fallback applied.
func FormatRatio(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// FormatResult renders the ratio for a unit whose column-0 total was a.
func FormatResult(a, ratio float64) string {
	if a == 0 {
		return "0"
	}
	return FormatRatio(ratio)
}
