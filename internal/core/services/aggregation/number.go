package aggregation

import (
	"regexp"
	"strconv"
	"strings"
)

// numericPrefix matches the longest leading decimal number of a value,
// so "90 min" coerces to 90 and "1.5e3 units" to 1500.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber coerces a raw field value to a number. Values without a
// leading numeric prefix (including "" and "N/A") are not numeric.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	match := numericPrefix.FindString(s)
	if match == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		// exponent overflow, e.g. "1e999"
		return 0, false
	}
	return v, true
}

// FormatYear renders a numeric year without a trailing fraction
func FormatYear(year float64) string {
	return strconv.FormatFloat(year, 'f', -1, 64)
}
