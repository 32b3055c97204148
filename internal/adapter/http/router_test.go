package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"currency-conversion-service/internal/adapter/ratelimit"
	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/domain/ports"
	"currency-conversion-service/internal/metrics"
	"currency-conversion-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleService() *MockConversionService {
	return &MockConversionService{
		ConvertSimpleFunc: func(ctx context.Context, request model.ConversionRequest) (*model.SimpleConversionResult, error) {
			return &model.SimpleConversionResult{From: "USD", To: "EUR", Amount: 1}, nil
		},
	}
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(&MockConversionService{})

	rec := serve(router, http.MethodGet, "/health", "")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	service := &MockConversionService{
		ConvertCurrencyFunc: func(ctx context.Context, request model.ConversionRequest) (*model.ConversionResult, error) {
			panic("nil map")
		},
	}

	rec := serve(newTestRouter(service), http.MethodPost, "/v1/currency", `{"from":"a","to":"b","amount":1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
}

func TestRoutes_MethodAndPath(t *testing.T) {
	router := newTestRouter(simpleService())

	testCases := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{method: http.MethodPost, path: "/currency", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/currency", expectedStatus: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/v1/unknown", expectedStatus: http.StatusNotFound},
		{method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := serve(router, tc.method, tc.path, `{"from":"a","to":"b","amount":1}`)
			assert.Equal(t, tc.expectedStatus, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(2, logger.NewNop())
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	handler := NewHandler(simpleService(), &MockCatalog{}, logger.NewNop())
	router := NewRouter(handler, logger.NewNop(), appMetrics, WithRateLimiter(limiter)).SetupRoutes()

	send := func(apiKey string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/currency", strings.NewReader(`{"from":"a","to":"b","amount":1}`))
		if apiKey != "" {
			req.Header.Set(APIKeyHeader, apiKey)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := send("")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, send("").Code)

	rec = send("")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(appMetrics.RateLimitedTotal))

	// a keyed client has its own allowance
	assert.Equal(t, http.StatusOK, send("partner-key").Code)

	// health is not limited
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
}

func TestRateLimit_LimiterErrorFailsOpen(t *testing.T) {
	limiter := &MockRateLimiter{
		AllowFunc: func(ctx context.Context, clientID string) (ports.RateLimitDecision, error) {
			return ports.RateLimitDecision{}, errors.New("redis down")
		},
	}

	router := newTestRouter(simpleService(), WithRateLimiter(limiter))
	rec := serve(router, http.MethodPost, "/currency", `{"from":"a","to":"b","amount":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "ip:10.0.0.7", clientKey(req))

	req.Header.Set(APIKeyHeader, " secret ")
	assert.Equal(t, "key:secret", clientKey(req))
}

func TestLoggingMiddleware_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)
	service := &MockConversionService{
		CountryCurrenciesFunc: func(ctx context.Context, country string) (*model.CountryCurrencyConfig, error) {
			return nil, model.CountryNotFound(country)
		},
	}

	handler := NewHandler(service, &MockCatalog{refreshed: time.Now()}, logger.NewNop())
	router := NewRouter(handler, logger.NewNop(), appMetrics,
		WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	).SetupRoutes()

	serve(router, http.MethodGet, "/v1/countries/atlantis/currencies", "")
	serve(router, http.MethodGet, "/v1/countries/narnia/currencies", "")
	serve(router, http.MethodGet, "/health", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(
		appMetrics.HTTPRequestsTotal.WithLabelValues("/v1/countries/{country}/currencies", http.MethodGet, "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		appMetrics.HTTPRequestsTotal.WithLabelValues("/health", http.MethodGet, "2xx")))

	rec := serve(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusOK))
	assert.Equal(t, "4xx", statusClass(http.StatusTooManyRequests))
	assert.Equal(t, "5xx", statusClass(http.StatusServiceUnavailable))
}
