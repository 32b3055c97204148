package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/metrics"
	"currency-conversion-service/pkg/logger"

	"github.com/tidwall/gjson"
)

const exchangeRatesService = "exchange_rates"

// ExchangeAPI is a client for the exchangerate-api.com v6 "latest" endpoint.
type ExchangeAPI struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        *logger.Logger
}

func NewExchangeAPI(baseURL, apiKey string, timeout time.Duration, appMetrics *metrics.Metrics, log *logger.Logger) *ExchangeAPI {
	return &ExchangeAPI{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
		metrics:    appMetrics,
		log:        log,
	}
}

// GetExchangeRate returns the full rate table anchored at base.
func (e *ExchangeAPI) GetExchangeRate(ctx context.Context, base string) (*model.RateTable, error) {
	table, err := e.fetchLatest(ctx, base)
	e.metrics.ObserveUpstream(exchangeRatesService, metrics.Outcome(err))
	return table, err
}

func (e *ExchangeAPI) fetchLatest(ctx context.Context, base string) (*model.RateTable, error) {
	endpoint := fmt.Sprintf("%s/v6/%s/latest/%s", e.baseURL, url.PathEscape(e.apiKey), url.PathEscape(base))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, model.ExternalAPIError(err, "failed to create request: %v", err)
	}

	e.log.Debug("Fetching exchange rates", "base", base)
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err, "exchange rate API request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		e.log.Error("Exchange rate API rate limit exceeded", "base", base)
		return nil, model.RateLimitExceeded("exchange rate API quota exhausted")
	default:
		e.log.Error("Exchange rate API error", "status", resp.StatusCode, "base", base)
		return nil, model.ServiceUnavailable(nil, "exchange rate service returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err, "failed to read exchange rate data")
	}
	if !gjson.ValidBytes(body) {
		return nil, model.ExternalAPIError(nil, "failed to parse exchange rate data")
	}

	doc := gjson.ParseBytes(body)
	if doc.Get("result").String() == "error" {
		return nil, model.ExternalAPIError(nil, "exchange rate API reported failure: %s", doc.Get("error-type").String())
	}

	rates := doc.Get("conversion_rates")
	if !rates.IsObject() {
		return nil, model.ExternalAPIError(nil, "exchange rate data has no conversion_rates")
	}

	table := &model.RateTable{
		BaseCode:        doc.Get("base_code").String(),
		ConversionRates: make(map[string]float64),
		LastUpdated:     time.Now().UTC(),
	}
	if table.BaseCode == "" {
		table.BaseCode = base
	}
	if unix := doc.Get("time_last_update_unix").Int(); unix > 0 {
		table.LastUpdated = time.Unix(unix, 0).UTC()
	}
	rates.ForEach(func(code, rate gjson.Result) bool {
		table.ConversionRates[code.String()] = rate.Float()
		return true
	})

	e.log.Debug("Fetched exchange rates", "base", base, "count", len(table.ConversionRates))
	return table, nil
}

// transportError files cancellation and timeouts as ServiceUnavailable and
// everything else as ExternalAPIError.
func transportError(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return model.ServiceUnavailable(err, "%s: %v", msg, err)
	}
	return model.ExternalAPIError(err, "%s: %v", msg, err)
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
