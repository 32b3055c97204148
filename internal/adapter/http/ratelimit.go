package http

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/domain/ports"
	"currency-conversion-service/internal/metrics"
	"currency-conversion-service/pkg/logger"
)

const APIKeyHeader = "X-API-Key"

// RateLimit rejects clients that have used up their allowance. Clients are
// keyed by API key when one is sent and by remote IP otherwise. A limiter
// error lets the request through.
func RateLimit(limiter ports.RateLimiter, appMetrics *metrics.Metrics, log *logger.Logger) func(http.Handler) http.Handler {
	h := &Handler{log: log}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientKey(r)

			decision, err := limiter.Allow(r.Context(), clientID)
			if err != nil {
				log.Error("Rate limiter unavailable", "error", err, "client", clientID)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				appMetrics.ObserveRateLimited()
				h.handleServiceError(w, r, model.RateLimitExceeded("daily request limit reached"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return "key:" + key
	}

	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return "ip:" + ip
}
