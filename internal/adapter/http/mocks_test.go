package http

import (
	"context"
	"time"

	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/domain/ports"

	"github.com/samber/mo"
)

type MockConversionService struct {
	ConvertCurrencyFunc   func(ctx context.Context, request model.ConversionRequest) (*model.ConversionResult, error)
	ConvertSimpleFunc     func(ctx context.Context, request model.ConversionRequest) (*model.SimpleConversionResult, error)
	CountryCurrenciesFunc func(ctx context.Context, country string) (*model.CountryCurrencyConfig, error)
	CacheStatsFunc        func() []model.CacheStats
}

func (m *MockConversionService) ConvertCurrency(ctx context.Context, request model.ConversionRequest) (*model.ConversionResult, error) {
	return m.ConvertCurrencyFunc(ctx, request)
}

func (m *MockConversionService) ConvertSimple(ctx context.Context, request model.ConversionRequest) (*model.SimpleConversionResult, error) {
	return m.ConvertSimpleFunc(ctx, request)
}

func (m *MockConversionService) CountryCurrencies(ctx context.Context, country string) (*model.CountryCurrencyConfig, error) {
	return m.CountryCurrenciesFunc(ctx, country)
}

func (m *MockConversionService) CacheStats() []model.CacheStats {
	if m.CacheStatsFunc == nil {
		return nil
	}
	return m.CacheStatsFunc()
}

type MockCatalog struct {
	size      int
	refreshed time.Time
}

func (m *MockCatalog) PrimaryCurrency(country string) mo.Option[string] { return mo.None[string]() }
func (m *MockCatalog) IsMultiCurrency(country string) bool            { return false }
func (m *MockCatalog) AvailableCurrencies(country string) mo.Option[model.CurrencyMap] {
	return mo.None[model.CurrencyMap]()
}
func (m *MockCatalog) Entry(country string) (model.CountryCurrencyConfig, bool) {
	return model.CountryCurrencyConfig{}, false
}
func (m *MockCatalog) Len() int                 { return m.size }
func (m *MockCatalog) LastRefreshed() time.Time { return m.refreshed }

type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, clientID string) (ports.RateLimitDecision, error)
}

func (m *MockRateLimiter) Allow(ctx context.Context, clientID string) (ports.RateLimitDecision, error) {
	return m.AllowFunc(ctx, clientID)
}
