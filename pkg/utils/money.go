package utils

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundToCents is round(amount*100)/100 with halves rounded away from zero.
// The scaling happens in float64, so 1.005 rounds down to 1.00.
func RoundToCents(amount float64) float64 {
	rounded, _ := decimal.NewFromFloat(amount * 100).Round(0).Div(hundred).Float64()
	return rounded
}

// ConvertAmount rounds the float product amount*rate to cents.
func ConvertAmount(amount, rate float64) float64 {
	return RoundToCents(amount * rate)
}

// FormatCountryName collapses whitespace and title-cases each word:
// "  united   STATES " becomes "United States".
func FormatCountryName(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// NormalizeKey is the lookup form of a country name.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
