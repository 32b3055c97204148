package model

import "time"

type ConversionRequest struct {
	From              string  `json:"from" validate:"required,max=100"`
	To                string  `json:"to" validate:"required,max=100"`
	Amount            float64 `json:"amount" validate:"gt=0"`
	PreferredCurrency string  `json:"preferred_currency,omitempty"`
}

// AvailableCurrency is a display-ready currency option for one response.
type AvailableCurrency struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	IsPrimary bool   `json:"is_primary"`
}

type CurrencyDetails struct {
	Country        string  `json:"country"`
	CurrencyCode   string  `json:"currency_code"`
	CurrencyName   string  `json:"currency_name"`
	CurrencySymbol string  `json:"currency_symbol"`
	Amount         float64 `json:"amount"`
	IsPrimary      bool    `json:"is_primary"`
}

type ConversionData struct {
	From                CurrencyDetails     `json:"from"`
	To                  CurrencyDetails     `json:"to"`
	ExchangeRate        float64             `json:"exchange_rate"`
	LastUpdated         time.Time           `json:"last_updated"`
	AvailableCurrencies []AvailableCurrency `json:"available_currencies,omitempty"`
}

type ResponseMetadata struct {
	Source                      string `json:"source"`
	ResponseTimeMs              int64  `json:"response_time_ms"`
	MultipleCurrenciesAvailable bool   `json:"multiple_currencies_available"`
	CacheHit                    bool   `json:"cache_hit"`
}

type ConversionResult struct {
	RequestID string           `json:"request_id"`
	Timestamp time.Time        `json:"timestamp"`
	Data      ConversionData   `json:"data"`
	Meta      ResponseMetadata `json:"meta"`
}

// SimpleConversionResult is the body of the legacy conversion endpoint.
type SimpleConversionResult struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}
