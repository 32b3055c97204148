package ports

import (
	"context"

	"currency-conversion-service/internal/domain/model"
)

type CountryDirectory interface {
	GetCountryInfo(ctx context.Context, name string) (*model.CountryInfo, error)
	ListCountries(ctx context.Context) ([]model.CountryInfo, error)
}

type ExchangeRateProvider interface {
	GetExchangeRate(ctx context.Context, base string) (*model.RateTable, error)
}
