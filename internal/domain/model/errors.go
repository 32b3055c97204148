package model

import (
	"fmt"
	"strings"
)

type ErrorKind int

const (
	KindCountryNotFound ErrorKind = iota + 1
	KindInvalidCurrency
	KindExternalAPIError
	KindServiceUnavailable
	KindRateLimitExceeded
	KindInvalidRequest
)

func (k ErrorKind) Code() string {
	switch k {
	case KindCountryNotFound:
		return "COUNTRY_NOT_FOUND"
	case KindInvalidCurrency:
		return "INVALID_CURRENCY"
	case KindExternalAPIError:
		return "EXTERNAL_API_ERROR"
	case KindServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case KindRateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	case KindInvalidRequest:
		return "INVALID_REQUEST"
	default:
		return "INTERNAL_ERROR"
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindCountryNotFound:
		return "country not found"
	case KindInvalidCurrency:
		return "invalid currency"
	case KindExternalAPIError:
		return "external API error"
	case KindServiceUnavailable:
		return "service unavailable"
	case KindRateLimitExceeded:
		return "rate limit exceeded"
	case KindInvalidRequest:
		return "invalid request"
	default:
		return "internal error"
	}
}

// ServiceError is the error type surfaced by the conversion core. Two
// ServiceErrors match under errors.Is when their kinds are equal, so the
// sentinels below work as targets.
type ServiceError struct {
	Kind      ErrorKind
	Detail    string
	Available []string
	Err       error
}

var (
	ErrCountryNotFound    = &ServiceError{Kind: KindCountryNotFound}
	ErrInvalidCurrency    = &ServiceError{Kind: KindInvalidCurrency}
	ErrExternalAPIFailure = &ServiceError{Kind: KindExternalAPIError}
	ErrServiceUnavailable = &ServiceError{Kind: KindServiceUnavailable}
	ErrRateLimitExceeded  = &ServiceError{Kind: KindRateLimitExceeded}
	ErrInvalidRequest     = &ServiceError{Kind: KindInvalidRequest}
)

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Code() string {
	return e.Kind.Code()
}

func CountryNotFound(country string) *ServiceError {
	return &ServiceError{Kind: KindCountryNotFound, Detail: country}
}

func InvalidCurrency(format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindInvalidCurrency, Detail: fmt.Sprintf(format, args...)}
}

// PreferredCurrencyUnavailable names the missing preference and lists what
// the country offers.
func PreferredCurrencyUnavailable(preferred, country string, available []string) *ServiceError {
	return &ServiceError{
		Kind: KindInvalidCurrency,
		Detail: fmt.Sprintf("preferred currency %s not available for %s. Available currencies: %s",
			preferred, country, strings.Join(available, ", ")),
		Available: available,
	}
}

func ExternalAPIError(err error, format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindExternalAPIError, Detail: fmt.Sprintf(format, args...), Err: err}
}

func ServiceUnavailable(err error, format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindServiceUnavailable, Detail: fmt.Sprintf(format, args...), Err: err}
}

func RateLimitExceeded(detail string) *ServiceError {
	return &ServiceError{Kind: KindRateLimitExceeded, Detail: detail}
}

func InvalidRequest(err error) *ServiceError {
	return &ServiceError{Kind: KindInvalidRequest, Detail: err.Error(), Err: err}
}
