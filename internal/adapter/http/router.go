package http

import (
	"fmt"
	"net/http"
	"time"

	"currency-conversion-service/internal/domain/ports"
	"currency-conversion-service/internal/metrics"
	"currency-conversion-service/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	handler        *Handler
	limiter        ports.RateLimiter
	log            *logger.Logger
	metrics        *metrics.Metrics
	metricsHandler http.Handler
}

type RouterOption func(*Router)

// WithRateLimiter limits the conversion and country endpoints.
func WithRateLimiter(limiter ports.RateLimiter) RouterOption {
	return func(r *Router) {
		r.limiter = limiter
	}
}

func WithMetricsHandler(h http.Handler) RouterOption {
	return func(r *Router) {
		r.metricsHandler = h
	}
}

func NewRouter(handler *Handler, log *logger.Logger, metrics *metrics.Metrics, opts ...RouterOption) *Router {
	r := &Router{
		handler:        handler,
		log:            log,
		metrics:        metrics,
		metricsHandler: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		crw := &customResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(crw, req)

		path := routePath(req)
		if path != "/metrics" && r.metrics != nil {
			duration := time.Since(start).Seconds()
			r.metrics.HTTPRequestDuration.WithLabelValues(path, req.Method).Observe(duration)
			r.metrics.HTTPRequestsTotal.WithLabelValues(path, req.Method, statusClass(crw.statusCode)).Inc()
		}

		duration := time.Since(start)
		r.log.Info("HTTP request",
			"method", req.Method,
			"path", req.URL.Path,
			"query", req.URL.RawQuery,
			"status", crw.statusCode,
			"duration", duration,
			"remote_addr", req.RemoteAddr,
			"user_agent", req.UserAgent(),
			"request_id", requestIDFrom(req.Context()),
		)
	})
}

// routePath prefers the matched route template so that path variables do
// not explode the metric label set.
func routePath(req *http.Request) string {
	if route := mux.CurrentRoute(req); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return req.URL.Path
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

type customResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (crw *customResponseWriter) WriteHeader(code int) {
	crw.statusCode = code
	crw.ResponseWriter.WriteHeader(code)
}

func (r *Router) SetupRoutes() http.Handler {
	router := mux.NewRouter()
	router.Use(RequestID, Recovery(r.log), r.loggingMiddleware)

	api := router.NewRoute().Subrouter()
	if r.limiter != nil {
		api.Use(RateLimit(r.limiter, r.metrics, r.log))
	}

	api.HandleFunc("/currency", r.handler.SimpleConvertHandler).Methods(http.MethodPost)
	api.HandleFunc("/v1/currency", r.handler.ConvertCurrencyHandler).Methods(http.MethodPost)
	api.HandleFunc("/v1/countries/{country}/currencies", r.handler.CountryCurrenciesHandler).Methods(http.MethodGet)

	router.HandleFunc("/v1/stats", r.handler.StatsHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", r.handler.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)

	return router
}
