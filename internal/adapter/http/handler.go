package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/domain/ports"
	"currency-conversion-service/pkg/logger"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success             bool      `json:"success"`
	Error               string    `json:"error"`
	Code                string    `json:"code"`
	RequestID           string    `json:"request_id"`
	Timestamp           time.Time `json:"timestamp"`
	Details             string    `json:"details,omitempty"`
	AvailableCurrencies []string  `json:"available_currencies,omitempty"`
}

type StatsResponse struct {
	Caches               []model.CacheStats `json:"caches"`
	CatalogCountries     int                `json:"catalog_countries"`
	CatalogLastRefreshed *time.Time         `json:"catalog_last_refreshed,omitempty"`
}

type Handler struct {
	service ports.ConversionService
	catalog ports.CurrencyCatalog
	log     *logger.Logger
}

func NewHandler(service ports.ConversionService, catalog ports.CurrencyCatalog, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		catalog: catalog,
		log:     log,
	}
}

// ConvertCurrencyHandler serves the detailed conversion endpoint.
func (h *Handler) ConvertCurrencyHandler(w http.ResponseWriter, r *http.Request) {
	request, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.ConvertCurrency(r.Context(), request)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	// the result already carries its own request id and timestamp
	h.writeJSON(w, http.StatusOK, result)
}

// SimpleConvertHandler serves the legacy endpoint, which answers with the
// selected codes and the converted amount only.
func (h *Handler) SimpleConvertHandler(w http.ResponseWriter, r *http.Request) {
	request, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.ConvertSimple(r.Context(), request)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CountryCurrenciesHandler(w http.ResponseWriter, r *http.Request) {
	country := mux.Vars(r)["country"]

	config, err := h.service.CountryCurrencies(r.Context(), country)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.sendSuccessResponse(w, config)
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := StatsResponse{
		Caches:           h.service.CacheStats(),
		CatalogCountries: h.catalog.Len(),
	}
	if refreshed := h.catalog.LastRefreshed(); !refreshed.IsZero() {
		stats.CatalogLastRefreshed = &refreshed
	}

	h.sendSuccessResponse(w, stats)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (model.ConversionRequest, bool) {
	var request model.ConversionRequest

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&request); err != nil {
		h.log.Debug("Invalid request body", "error", err)
		h.handleServiceError(w, r, model.InvalidRequest(errors.New("request body must be a JSON object with from, to and amount")))
		return request, false
	}
	return request, true
}

func (h *Handler) sendSuccessResponse(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, response ErrorResponse) {
	response.Success = false
	response.RequestID = requestIDFrom(r.Context())
	response.Timestamp = time.Now().UTC()
	h.writeJSON(w, statusCode, response)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, response := errorResponse(err)

	if statusCode >= http.StatusInternalServerError {
		h.log.Error("Service error", "error", err, "status_code", statusCode, "path", r.URL.Path)
	} else {
		h.log.Debug("Request rejected", "error", err, "status_code", statusCode, "path", r.URL.Path)
	}
	h.sendErrorResponse(w, r, statusCode, response)
}

// errorResponse maps an error to its HTTP status and body. Upstream
// failures are reported as a generic 503 with the cause in details.
func errorResponse(err error) (int, ErrorResponse) {
	var serviceErr *model.ServiceError
	if !errors.As(err, &serviceErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			Code:    "INTERNAL_ERROR",
			Details: err.Error(),
		}
	}

	switch serviceErr.Kind {
	case model.KindCountryNotFound:
		return http.StatusNotFound, ErrorResponse{Error: serviceErr.Error(), Code: serviceErr.Code()}
	case model.KindInvalidCurrency, model.KindInvalidRequest:
		return http.StatusBadRequest, ErrorResponse{
			Error:               serviceErr.Error(),
			Code:                serviceErr.Code(),
			AvailableCurrencies: serviceErr.Available,
		}
	case model.KindRateLimitExceeded:
		return http.StatusTooManyRequests, ErrorResponse{Error: serviceErr.Error(), Code: serviceErr.Code()}
	case model.KindExternalAPIError, model.KindServiceUnavailable:
		return http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Service temporarily unavailable",
			Code:    model.KindServiceUnavailable.Code(),
			Details: serviceErr.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			Code:    "INTERNAL_ERROR",
			Details: serviceErr.Error(),
		}
	}
}
