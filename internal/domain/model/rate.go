package model

import (
	"fmt"
	"time"
)

// ExchangeRateData is one cached directed rate.
type ExchangeRateData struct {
	Rate        float64   `json:"rate"`
	LastUpdated time.Time `json:"last_updated"`
}

// RateTable is a full rate table anchored at BaseCode, as returned by the
// exchange-rate provider.
type RateTable struct {
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	LastUpdated     time.Time          `json:"last_updated"`
}

type CurrencyPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CacheKey is the rate pair key "{from}_{to}".
func (p CurrencyPair) CacheKey() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

func (p CurrencyPair) String() string {
	return fmt.Sprintf("%s->%s", p.From, p.To)
}

type CacheStats struct {
	Name    string  `json:"name"`
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}
