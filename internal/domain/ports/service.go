package ports

import (
	"context"
	"time"

	"currency-conversion-service/internal/domain/model"

	"github.com/samber/mo"
)

type ConversionService interface {
	ConvertCurrency(ctx context.Context, request model.ConversionRequest) (*model.ConversionResult, error)
	ConvertSimple(ctx context.Context, request model.ConversionRequest) (*model.SimpleConversionResult, error)
	CountryCurrencies(ctx context.Context, country string) (*model.CountryCurrencyConfig, error)
	CacheStats() []model.CacheStats
}

// CurrencyCatalog answers primary-currency questions about countries by name.
type CurrencyCatalog interface {
	PrimaryCurrency(country string) mo.Option[string]
	IsMultiCurrency(country string) bool
	AvailableCurrencies(country string) mo.Option[model.CurrencyMap]
	Entry(country string) (model.CountryCurrencyConfig, bool)
	Len() int
	LastRefreshed() time.Time
}

// RateLimiter decides whether a client may make another request.
type RateLimiter interface {
	Allow(ctx context.Context, clientID string) (RateLimitDecision, error)
}

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}
