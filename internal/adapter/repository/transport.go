package repository

import (
	"net/http"
	"time"
)

const userAgent = "currency-conversion-service/1.0"

// userAgentRoundTripper stamps every upstream request with our User-Agent.
type userAgentRoundTripper struct {
	wrapped   http.RoundTripper
	userAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.userAgent)
	clone.Header.Set("Accept", "application/json")
	return rt.wrapped.RoundTrip(clone)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentRoundTripper{
			wrapped:   http.DefaultTransport,
			userAgent: userAgent,
		},
	}
}
