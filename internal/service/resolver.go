package service

import (
	"math"

	"currency-conversion-service/internal/domain/model"
)

// DeterminePrimaryCurrency picks the currency a country defaults to and
// reports whether the country should be treated as multi-currency.
//
// A country is multi-currency when it lists more than one code or when any
// of its codes is listed by more than one country. The primary currency is
// USD, then EUR, then the code with the highest reference rate, then the
// code shared by the most countries, then the first listed code. Every tie
// goes to the code listed first.
//
// referenceRates may be nil. currencies must not be empty.
func DeterminePrimaryCurrency(currencies model.CurrencyMap, usage model.UsagePatterns, referenceRates map[string]float64) (string, bool) {
	codes := currencies.Codes()
	if len(codes) == 0 {
		return "", false
	}

	return selectPrimary(codes, usage, referenceRates), isMultiCurrency(codes, usage)
}

func isMultiCurrency(codes []string, usage model.UsagePatterns) bool {
	if len(codes) > 1 {
		return true
	}
	for _, code := range codes {
		if len(usage[code]) > 1 {
			return true
		}
	}
	return false
}

func selectPrimary(codes []string, usage model.UsagePatterns, referenceRates map[string]float64) string {
	for _, anchor := range []string{model.USD, model.EUR} {
		for _, code := range codes {
			if code == anchor {
				return anchor
			}
		}
	}

	if referenceRates != nil {
		if code, ok := highestRate(codes, referenceRates); ok {
			return code
		}
	}

	return mostShared(codes, usage)
}

func highestRate(codes []string, referenceRates map[string]float64) (string, bool) {
	var (
		best     string
		bestRate float64
		found    bool
	)
	for _, code := range codes {
		rate, ok := referenceRates[code]
		if !ok {
			continue
		}
		if math.IsNaN(rate) {
			rate = 0
		}
		if !found || rate > bestRate {
			best, bestRate, found = code, rate, true
		}
	}
	return best, found
}

// mostShared falls back to the first code when nobody shares any of them.
func mostShared(codes []string, usage model.UsagePatterns) string {
	best := codes[0]
	bestCount := len(usage[best])
	for _, code := range codes[1:] {
		if count := len(usage[code]); count > bestCount {
			best, bestCount = code, count
		}
	}
	return best
}

// BuildUsagePatterns maps each currency code to the countries listing it,
// in directory order.
func BuildUsagePatterns(countries []model.CountryInfo) model.UsagePatterns {
	usage := make(model.UsagePatterns)
	for _, country := range countries {
		for _, code := range country.Currencies.Codes() {
			usage[code] = append(usage[code], country.Name)
		}
	}
	return usage
}
