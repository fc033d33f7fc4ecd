package utils

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

var amountNoiseRe = regexp.MustCompile(`[^\d,.\-]`)

// ParseAmount reads a monetary amount written either way: "1 234,56 €", "1,234.56", "45.50".
// The right-most separator is taken as the decimal point.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = amountNoiseRe.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Round2 rounds money to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
