package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/domain/ports"
	"currency-conversion-service/internal/metrics"
	"currency-conversion-service/pkg/logger"
	"currency-conversion-service/pkg/utils"
	"currency-conversion-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"
)

const RateSource = "exchangerate-api.com"

type ConversionService struct {
	countries    ports.CountryDirectory
	rates        ports.ExchangeRateProvider
	catalog      ports.CurrencyCatalog
	rateCache    ports.Cache[model.ExchangeRateData]
	countryCache ports.Cache[model.CountryInfo]
	validate     *validator.Validator
	metrics      *metrics.Metrics
	log          *logger.Logger
	now          func() time.Time
}

func NewConversionService(
	countries ports.CountryDirectory,
	rates ports.ExchangeRateProvider,
	catalog ports.CurrencyCatalog,
	rateCache ports.Cache[model.ExchangeRateData],
	countryCache ports.Cache[model.CountryInfo],
	appMetrics *metrics.Metrics,
	log *logger.Logger,
) *ConversionService {
	return &ConversionService{
		countries:    countries,
		rates:        rates,
		catalog:      catalog,
		rateCache:    rateCache,
		countryCache: countryCache,
		validate:     validator.New(),
		metrics:      appMetrics,
		log:          log,
		now:          time.Now,
	}
}

// resolvedSide is one end of a conversion after currency selection.
type resolvedSide struct {
	country    model.CountryInfo
	primary    mo.Option[string]
	multi      bool
	code       string
	info       model.CurrencyInfo
	currencies model.CurrencyMap
}

func (s *ConversionService) ConvertCurrency(ctx context.Context, request model.ConversionRequest) (*model.ConversionResult, error) {
	result, err := s.convert(ctx, request)
	s.metrics.ObserveConversion(metrics.Outcome(err))
	return result, err
}

func (s *ConversionService) ConvertSimple(ctx context.Context, request model.ConversionRequest) (*model.SimpleConversionResult, error) {
	result, err := s.ConvertCurrency(ctx, request)
	if err != nil {
		return nil, err
	}

	return &model.SimpleConversionResult{
		From:   result.Data.From.CurrencyCode,
		To:     result.Data.To.CurrencyCode,
		Amount: result.Data.To.Amount,
	}, nil
}

func (s *ConversionService) convert(ctx context.Context, request model.ConversionRequest) (*model.ConversionResult, error) {
	start := s.now()

	request = normalizeRequest(request)
	if err := s.validate.Validate(request); err != nil {
		return nil, model.InvalidRequest(err)
	}

	var fromCountry, toCountry model.CountryInfo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := s.getCountry(gctx, request.From)
		fromCountry = info
		return err
	})
	g.Go(func() error {
		info, err := s.getCountry(gctx, request.To)
		toCountry = info
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	from, err := s.resolveSide(fromCountry, request.PreferredCurrency)
	if err != nil {
		return nil, err
	}
	to, err := s.resolveSide(toCountry, request.PreferredCurrency)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Selected currencies", "from", from.code, "to", to.code)

	var (
		rate      model.ExchangeRateData
		cacheHit  bool
		converted float64
	)
	if from.code == to.code {
		// nothing to look up; reported as a cache hit
		rate = model.ExchangeRateData{Rate: 1.0, LastUpdated: s.now().UTC()}
		cacheHit = true
		converted = utils.RoundToCents(request.Amount)
	} else {
		rate, cacheHit, err = s.getRate(ctx, model.CurrencyPair{From: from.code, To: to.code})
		if err != nil {
			return nil, err
		}
		converted = utils.ConvertAmount(request.Amount, rate.Rate)
	}

	multiple := from.multi || to.multi
	data := model.ConversionData{
		From:         details(from, utils.RoundToCents(request.Amount)),
		To:           details(to, converted),
		ExchangeRate: rate.Rate,
		LastUpdated:  rate.LastUpdated,
	}
	if multiple {
		data.AvailableCurrencies = availableCurrencies(from.currencies, to.currencies, from.primary, to.primary)
	}

	s.log.Info("Conversion successful",
		"from", from.code,
		"to", to.code,
		"amount", request.Amount,
		"converted", converted,
		"rate", rate.Rate,
		"cache_hit", cacheHit,
	)

	return &model.ConversionResult{
		RequestID: uuid.NewString(),
		Timestamp: s.now().UTC(),
		Data:      data,
		Meta: model.ResponseMetadata{
			Source:                      RateSource,
			ResponseTimeMs:              s.now().Sub(start).Milliseconds(),
			MultipleCurrenciesAvailable: multiple,
			CacheHit:                    cacheHit,
		},
	}, nil
}

func normalizeRequest(request model.ConversionRequest) model.ConversionRequest {
	request.From = utils.FormatCountryName(request.From)
	request.To = utils.FormatCountryName(request.To)
	request.PreferredCurrency = strings.ToUpper(strings.TrimSpace(request.PreferredCurrency))
	return request
}

func (s *ConversionService) resolveSide(country model.CountryInfo, preferred string) (resolvedSide, error) {
	if country.Currencies.Len() == 0 {
		return resolvedSide{}, model.InvalidCurrency("no currencies found for %s", country.Name)
	}

	primary := s.catalog.PrimaryCurrency(country.Name)
	code, info, err := SelectCurrency(country.Currencies, preferred, primary, country.Name)
	if err != nil {
		return resolvedSide{}, err
	}

	return resolvedSide{
		country:    country,
		primary:    primary,
		multi:      s.catalog.IsMultiCurrency(country.Name) || country.Currencies.Len() > 1,
		code:       code,
		info:       info,
		currencies: country.Currencies,
	}, nil
}

func details(side resolvedSide, amount float64) model.CurrencyDetails {
	return model.CurrencyDetails{
		Country:        side.country.Name,
		CurrencyCode:   side.code,
		CurrencyName:   side.info.Name,
		CurrencySymbol: side.info.Symbol,
		Amount:         amount,
		IsPrimary:      side.primary.OrEmpty() == side.code,
	}
}

// getCountry reads through the country cache.
func (s *ConversionService) getCountry(ctx context.Context, name string) (model.CountryInfo, error) {
	key := utils.NormalizeKey(name)
	if info, found := s.countryCache.Get(key); found {
		return info, nil
	}

	info, err := s.countries.GetCountryInfo(ctx, name)
	if err != nil {
		s.log.Error("Failed to get country info", "country", name, "error", err)
		return model.CountryInfo{}, asServiceError(err)
	}

	s.countryCache.Set(key, *info)
	return *info, nil
}

// getRate reads the pair from the rate cache and falls back to the
// provider. Only the requested pair is cached, and only on success.
func (s *ConversionService) getRate(ctx context.Context, pair model.CurrencyPair) (model.ExchangeRateData, bool, error) {
	key := pair.CacheKey()
	if rate, found := s.rateCache.Get(key); found {
		s.log.Info("Exchange rate found in cache", "pair", pair.String())
		return rate, true, nil
	}

	s.log.Info("Fetching exchange rate from provider", "pair", pair.String())
	table, err := s.rates.GetExchangeRate(ctx, pair.From)
	if err != nil {
		s.log.Error("Failed to fetch exchange rate", "error", err, "pair", pair.String())
		return model.ExchangeRateData{}, false, asServiceError(err)
	}

	value, ok := table.ConversionRates[pair.To]
	if !ok {
		return model.ExchangeRateData{}, false, model.InvalidCurrency("rate not found for pair %s", pair)
	}

	rate := model.ExchangeRateData{Rate: value, LastUpdated: s.now().UTC()}
	s.rateCache.Set(key, rate)
	return rate, false, nil
}

// CountryCurrencies returns the catalog entry for country, resolving it on
// the fly when the catalog has not seen it yet.
func (s *ConversionService) CountryCurrencies(ctx context.Context, country string) (*model.CountryCurrencyConfig, error) {
	name := utils.FormatCountryName(country)
	if name == "" {
		return nil, model.InvalidRequest(errors.New("country is required"))
	}

	if config, ok := s.catalog.Entry(name); ok {
		return &config, nil
	}

	info, err := s.getCountry(ctx, name)
	if err != nil {
		return nil, err
	}
	if info.Currencies.Len() == 0 {
		return nil, model.InvalidCurrency("no currencies found for %s", info.Name)
	}
	if config, ok := s.catalog.Entry(info.Name); ok {
		return &config, nil
	}

	primary, multi := DeterminePrimaryCurrency(info.Currencies, nil, nil)
	return &model.CountryCurrencyConfig{
		Name:            info.Name,
		PrimaryCurrency: primary,
		Currencies:      info.Currencies,
		IsMultiCurrency: multi,
	}, nil
}

func (s *ConversionService) CacheStats() []model.CacheStats {
	return []model.CacheStats{s.rateCache.Stats(), s.countryCache.Stats()}
}

// asServiceError keeps typed errors as they are and files anything else
// under ExternalAPIError.
func asServiceError(err error) error {
	var serviceErr *model.ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.ServiceUnavailable(err, "request cancelled: %v", err)
	}
	return model.ExternalAPIError(err, "%v", err)
}
