package model

import "time"

// CountryInfo is what the country directory knows about one country.
type CountryInfo struct {
	Name         string      `json:"name"`
	OfficialName string      `json:"official_name,omitempty"`
	Currencies   CurrencyMap `json:"currencies"`
}

// CountryCurrencyConfig is the resolved currency setup of one country.
// PrimaryCurrency is always a key of Currencies.
type CountryCurrencyConfig struct {
	Name            string      `json:"name"`
	PrimaryCurrency string      `json:"primary_currency"`
	Currencies      CurrencyMap `json:"currencies"`
	IsMultiCurrency bool        `json:"is_multi_currency"`
}

// UsagePatterns maps a currency code to the countries that list it.
type UsagePatterns map[string][]string

// CatalogSnapshot is a full catalog table, keyed by normalised country name.
type CatalogSnapshot struct {
	LastRefreshed time.Time                        `json:"last_refreshed"`
	Countries     map[string]CountryCurrencyConfig `json:"countries"`
}
