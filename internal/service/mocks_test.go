package service

import (
	"context"
	"strings"
	"sync/atomic"

	"currency-conversion-service/internal/domain/model"
)

type MockCountryDirectory struct {
	GetCountryInfoFunc func(ctx context.Context, name string) (*model.CountryInfo, error)
	ListCountriesFunc  func(ctx context.Context) ([]model.CountryInfo, error)

	lookups atomic.Int32
}

func (m *MockCountryDirectory) GetCountryInfo(ctx context.Context, name string) (*model.CountryInfo, error) {
	m.lookups.Add(1)
	return m.GetCountryInfoFunc(ctx, name)
}

func (m *MockCountryDirectory) ListCountries(ctx context.Context) ([]model.CountryInfo, error) {
	return m.ListCountriesFunc(ctx)
}

type MockExchangeRateProvider struct {
	GetExchangeRateFunc func(ctx context.Context, base string) (*model.RateTable, error)

	calls atomic.Int32
}

func (m *MockExchangeRateProvider) GetExchangeRate(ctx context.Context, base string) (*model.RateTable, error) {
	m.calls.Add(1)
	return m.GetExchangeRateFunc(ctx, base)
}

type MockCatalogStore struct {
	SaveSnapshotFunc func(ctx context.Context, snapshot model.CatalogSnapshot) error
	LoadSnapshotFunc func(ctx context.Context) (model.CatalogSnapshot, bool, error)
}

func (m *MockCatalogStore) SaveSnapshot(ctx context.Context, snapshot model.CatalogSnapshot) error {
	return m.SaveSnapshotFunc(ctx, snapshot)
}

func (m *MockCatalogStore) LoadSnapshot(ctx context.Context) (model.CatalogSnapshot, bool, error) {
	return m.LoadSnapshotFunc(ctx)
}

func country(name string, codes ...string) model.CountryInfo {
	return model.CountryInfo{Name: name, Currencies: currencyMap(codes...)}
}

// directoryOf answers lookups from a fixed set of countries, matching names
// case-insensitively.
func directoryOf(countries ...model.CountryInfo) *MockCountryDirectory {
	return &MockCountryDirectory{
		GetCountryInfoFunc: func(ctx context.Context, name string) (*model.CountryInfo, error) {
			for _, c := range countries {
				if strings.EqualFold(c.Name, name) {
					found := c
					return &found, nil
				}
			}
			return nil, model.CountryNotFound(name)
		},
		ListCountriesFunc: func(ctx context.Context) ([]model.CountryInfo, error) {
			return countries, nil
		},
	}
}

func ratesOf(tables map[string]map[string]float64) *MockExchangeRateProvider {
	return &MockExchangeRateProvider{
		GetExchangeRateFunc: func(ctx context.Context, base string) (*model.RateTable, error) {
			rates, ok := tables[base]
			if !ok {
				return nil, model.ExternalAPIError(nil, "unsupported base %s", base)
			}
			return &model.RateTable{BaseCode: base, ConversionRates: rates}, nil
		},
	}
}
