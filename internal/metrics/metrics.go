package metrics

import (
	"errors"

	"currency-conversion-service/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	registerer prometheus.Registerer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ConversionRequestsTotal *prometheus.CounterVec
	UpstreamRequestsTotal   *prometheus.CounterVec
	CatalogRefreshesTotal   *prometheus.CounterVec
	RateLimitedTotal        prometheus.Counter
}

// NewMetrics registers every collector with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registerer: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		ConversionRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conversion_requests_total",
				Help: "Total number of currency conversion requests by outcome",
			},
			[]string{"outcome"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Total number of calls to upstream services",
			},
			[]string{"service", "outcome"},
		),

		CatalogRefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "currency_catalog_refreshes_total",
				Help: "Total number of currency catalog refreshes",
			},
			[]string{"outcome"},
		),

		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
	}
}

// RegisterCache exposes a cache's counters as gauges.
func (m *Metrics) RegisterCache(name string, stats func() model.CacheStats) {
	factory := promauto.With(m.registerer)
	labels := prometheus.Labels{"cache": name}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "cache_entries",
		Help:        "Current number of cache entries",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Size) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "cache_hits",
		Help:        "Cumulative cache hits",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Hits) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "cache_misses",
		Help:        "Cumulative cache misses",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Misses) })
}

func (m *Metrics) RegisterCatalog(size func() int) {
	promauto.With(m.registerer).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "currency_catalog_countries",
		Help: "Number of countries in the currency catalog",
	}, func() float64 { return float64(size()) })
}

func (m *Metrics) ObserveConversion(outcome string) {
	if m == nil {
		return
	}
	m.ConversionRequestsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveUpstream(service, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *Metrics) ObserveCatalogRefresh(outcome string) {
	if m == nil {
		return
	}
	m.CatalogRefreshesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// Outcome labels a result by error kind.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	var serviceErr *model.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code()
	}
	return "error"
}
