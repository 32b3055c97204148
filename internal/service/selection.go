package service

import (
	"currency-conversion-service/internal/domain/model"

	"github.com/samber/mo"
)

// SelectCurrency picks the code to convert from or to for one country: the
// preferred code when given, then the known primary, then USD, then EUR,
// then the first listed code. A preferred code the country does not list
// is an InvalidCurrency error.
func SelectCurrency(currencies model.CurrencyMap, preferred string, primary mo.Option[string], country string) (string, model.CurrencyInfo, error) {
	if preferred != "" {
		if info, ok := currencies.Get(preferred); ok {
			return preferred, info, nil
		}
		return "", model.CurrencyInfo{}, model.PreferredCurrencyUnavailable(preferred, country, currencies.Codes())
	}

	if code, ok := primary.Get(); ok {
		if info, ok := currencies.Get(code); ok {
			return code, info, nil
		}
	}

	for _, code := range []string{model.USD, model.EUR} {
		if info, ok := currencies.Get(code); ok {
			return code, info, nil
		}
	}

	if code, info, ok := currencies.First(); ok {
		return code, info, nil
	}
	return "", model.CurrencyInfo{}, model.InvalidCurrency("no currency found for %s", country)
}

// availableCurrencies lists both countries' options, source first, with
// each code appearing once.
func availableCurrencies(from, to model.CurrencyMap, fromPrimary, toPrimary mo.Option[string]) []model.AvailableCurrency {
	out := make([]model.AvailableCurrency, 0, from.Len()+to.Len())
	seen := make(map[string]struct{}, from.Len()+to.Len())

	add := func(currencies model.CurrencyMap, primary mo.Option[string]) {
		for _, code := range currencies.Codes() {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			info, _ := currencies.Get(code)
			out = append(out, model.AvailableCurrency{
				Code:      code,
				Name:      info.Name,
				Symbol:    info.Symbol,
				IsPrimary: primary.OrEmpty() == code,
			})
		}
	}
	add(from, fromPrimary)
	add(to, toPrimary)

	return out
}
