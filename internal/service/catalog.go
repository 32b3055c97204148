package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/domain/ports"
	"currency-conversion-service/internal/metrics"
	"currency-conversion-service/pkg/logger"
	"currency-conversion-service/pkg/utils"

	"github.com/samber/mo"
)

// CurrencyCatalog holds the resolved currency setup of every known country.
// It is rebuilt wholesale by Refresh and read concurrently by conversions.
type CurrencyCatalog struct {
	directory     ports.CountryDirectory
	rates         ports.ExchangeRateProvider
	store         ports.CatalogStore
	referenceBase string
	metrics       *metrics.Metrics
	log           *logger.Logger

	mutex         sync.RWMutex
	countries     map[string]model.CountryCurrencyConfig
	lastRefreshed time.Time
}

type CatalogOption func(*CurrencyCatalog)

// WithCatalogStore persists every refreshed snapshot and allows Load.
func WithCatalogStore(store ports.CatalogStore) CatalogOption {
	return func(c *CurrencyCatalog) {
		c.store = store
	}
}

func WithReferenceBase(base string) CatalogOption {
	return func(c *CurrencyCatalog) {
		c.referenceBase = base
	}
}

func WithCatalogMetrics(m *metrics.Metrics) CatalogOption {
	return func(c *CurrencyCatalog) {
		c.metrics = m
	}
}

func NewCurrencyCatalog(directory ports.CountryDirectory, rates ports.ExchangeRateProvider, log *logger.Logger, opts ...CatalogOption) *CurrencyCatalog {
	c := &CurrencyCatalog{
		directory:     directory,
		rates:         rates,
		referenceBase: model.USD,
		log:           log,
		countries:     make(map[string]model.CountryCurrencyConfig),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CurrencyCatalog) Entry(country string) (model.CountryCurrencyConfig, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	config, ok := c.countries[utils.NormalizeKey(country)]
	return config, ok
}

func (c *CurrencyCatalog) PrimaryCurrency(country string) mo.Option[string] {
	config, ok := c.Entry(country)
	if !ok || config.PrimaryCurrency == "" {
		return mo.None[string]()
	}
	return mo.Some(config.PrimaryCurrency)
}

func (c *CurrencyCatalog) IsMultiCurrency(country string) bool {
	config, ok := c.Entry(country)
	return ok && config.IsMultiCurrency
}

func (c *CurrencyCatalog) AvailableCurrencies(country string) mo.Option[model.CurrencyMap] {
	config, ok := c.Entry(country)
	if !ok {
		return mo.None[model.CurrencyMap]()
	}
	return mo.Some(config.Currencies.Clone())
}

func (c *CurrencyCatalog) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.countries)
}

func (c *CurrencyCatalog) LastRefreshed() time.Time {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.lastRefreshed
}

// Snapshot copies the installed table; it is what Refresh persists.
func (c *CurrencyCatalog) Snapshot() model.CatalogSnapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	countries := make(map[string]model.CountryCurrencyConfig, len(c.countries))
	for key, config := range c.countries {
		countries[key] = config
	}
	return model.CatalogSnapshot{LastRefreshed: c.lastRefreshed, Countries: countries}
}

// Replace swaps the whole table. Keys are normalised on the way in.
func (c *CurrencyCatalog) Replace(snapshot model.CatalogSnapshot) {
	countries := make(map[string]model.CountryCurrencyConfig, len(snapshot.Countries))
	for key, config := range snapshot.Countries {
		countries[utils.NormalizeKey(key)] = config
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.countries = countries
	c.lastRefreshed = snapshot.LastRefreshed
}

// Load restores the last persisted snapshot. It reports false when there is
// no store or nothing saved yet.
func (c *CurrencyCatalog) Load(ctx context.Context) (bool, error) {
	if c.store == nil {
		return false, nil
	}

	snapshot, found, err := c.store.LoadSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("load catalog snapshot: %w", err)
	}
	if !found {
		return false, nil
	}

	c.Replace(snapshot)
	c.log.Info("Loaded currency catalog snapshot", "countries", len(snapshot.Countries), "last_refreshed", snapshot.LastRefreshed)
	return true, nil
}

// Refresh rebuilds the catalog from the country directory. On failure the
// previous table stays in place.
func (c *CurrencyCatalog) Refresh(ctx context.Context) error {
	start := time.Now()
	c.log.Info("Refreshing currency catalog")

	countries, err := c.directory.ListCountries(ctx)
	if err != nil {
		c.metrics.ObserveCatalogRefresh(metrics.Outcome(err))
		c.log.Error("Failed to list countries", "error", err)
		return err
	}

	usage := BuildUsagePatterns(countries)
	referenceRates := c.referenceRates(ctx)

	resolved := make(map[string]model.CountryCurrencyConfig, len(countries))
	for _, country := range countries {
		if country.Currencies.Len() == 0 {
			continue
		}

		primary, multi := DeterminePrimaryCurrency(country.Currencies, usage, referenceRates)
		c.log.Debug("Resolved country currency",
			"country", country.Name,
			"currencies", country.Currencies.Len(),
			"primary", primary,
			"multi", multi,
		)

		resolved[utils.NormalizeKey(country.Name)] = model.CountryCurrencyConfig{
			Name:            country.Name,
			PrimaryCurrency: primary,
			Currencies:      country.Currencies,
			IsMultiCurrency: multi,
		}
	}

	c.Replace(model.CatalogSnapshot{LastRefreshed: time.Now().UTC(), Countries: resolved})
	c.metrics.ObserveCatalogRefresh(metrics.Outcome(nil))

	if c.store != nil {
		if err := c.store.SaveSnapshot(ctx, c.Snapshot()); err != nil {
			c.log.Warn("Failed to persist currency catalog", "error", err)
		}
	}

	c.log.Info("Currency catalog refreshed", "countries", len(resolved), "duration", time.Since(start))
	return nil
}

// referenceRates is best effort; nil means the resolver runs without rates.
func (c *CurrencyCatalog) referenceRates(ctx context.Context) map[string]float64 {
	if c.rates == nil {
		return nil
	}

	table, err := c.rates.GetExchangeRate(ctx, c.referenceBase)
	if err != nil {
		c.log.Warn("Reference rates unavailable, resolving without them", "base", c.referenceBase, "error", err)
		return nil
	}
	return table.ConversionRates
}
