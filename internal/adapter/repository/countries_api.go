package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/metrics"
	"currency-conversion-service/pkg/logger"

	"github.com/tidwall/gjson"
)

const countriesService = "countries"

// CountriesAPI is a client for the REST Countries v3.1 API. Responses are
// read with gjson so currencies keep the order the directory lists them in.
type CountriesAPI struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        *logger.Logger
}

func NewCountriesAPI(baseURL string, timeout time.Duration, appMetrics *metrics.Metrics, log *logger.Logger) *CountriesAPI {
	return &CountriesAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		metrics:    appMetrics,
		log:        log,
	}
}

// GetCountryInfo looks a country up by name. An exact common-name match
// wins over the directory's first partial match.
func (c *CountriesAPI) GetCountryInfo(ctx context.Context, name string) (*model.CountryInfo, error) {
	endpoint := fmt.Sprintf("%s/v3.1/name/%s?fields=name,currencies", c.baseURL, url.PathEscape(name))

	body, err := c.get(ctx, endpoint, name)
	c.metrics.ObserveUpstream(countriesService, metrics.Outcome(err))
	if err != nil {
		return nil, err
	}

	results := gjson.ParseBytes(body).Array()
	if len(results) == 0 {
		return nil, model.CountryNotFound(name)
	}

	chosen := results[0]
	for _, result := range results {
		if strings.EqualFold(result.Get("name.common").String(), name) {
			chosen = result
			break
		}
	}

	info := parseCountry(chosen)
	c.log.Debug("Got country info", "country", info.Name, "currencies", info.Currencies.Len())
	return &info, nil
}

func (c *CountriesAPI) ListCountries(ctx context.Context) ([]model.CountryInfo, error) {
	endpoint := fmt.Sprintf("%s/v3.1/all?fields=name,currencies", c.baseURL)

	body, err := c.get(ctx, endpoint, "")
	c.metrics.ObserveUpstream(countriesService, metrics.Outcome(err))
	if err != nil {
		return nil, err
	}

	results := gjson.ParseBytes(body).Array()
	countries := make([]model.CountryInfo, 0, len(results))
	for _, result := range results {
		countries = append(countries, parseCountry(result))
	}

	c.log.Info("Fetched country list", "count", len(countries))
	return countries, nil
}

// get returns a validated JSON array body. name is reported on 404.
func (c *CountriesAPI) get(ctx context.Context, endpoint, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, model.ExternalAPIError(err, "failed to create request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Failed to fetch country data", "error", err)
		return nil, transportError(ctx, err, "REST Countries API request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound && name != "":
		c.log.Debug("Country not found", "country", name)
		return nil, model.CountryNotFound(name)
	default:
		c.log.Error("REST Countries API error", "status", resp.StatusCode, "country", name)
		return nil, model.ExternalAPIError(nil, "REST Countries API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err, "failed to read country data")
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return nil, model.ExternalAPIError(nil, "failed to parse country data")
	}
	return body, nil
}

func parseCountry(result gjson.Result) model.CountryInfo {
	return model.CountryInfo{
		Name:         result.Get("name.common").String(),
		OfficialName: result.Get("name.official").String(),
		Currencies:   model.ParseCurrencies(result.Get("currencies")),
	}
}
