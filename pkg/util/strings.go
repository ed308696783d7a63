package util

import (
	"strconv"
	"strings"
)

// ParseDecimal parses a price written with either "," or "." as decimal separator.
// Thousands separators are not expected in the source data.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
