package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jhleee/geo-search-api/application/service"
	"github.com/jhleee/geo-search-api/domain/location"
)

// ErrMalformedRequest marks a request body that could not be decoded.
// Handlers wrap decode errors with it so WriteError maps them to 400.
var ErrMalformedRequest = errors.New("malformed request body")

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	ID     string `json:"id,omitempty"`
}

// ErrorResponse wraps one or more errors.
type ErrorResponse struct {
	Errors []ErrorBody `json:"errors"`
}

// WriteError writes a JSON error response, mapping domain and service
// sentinels to status codes.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, location.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrMalformedRequest),
		errors.Is(err, location.ErrInvalidLatitude),
		errors.Is(err, location.ErrInvalidLongitude),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrBatchTooLarge):
		status = http.StatusBadRequest
	}

	requestID := middleware.GetReqID(r.Context())

	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("request error",
			"request_id", requestID,
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		)
	}

	resp := ErrorResponse{
		Errors: []ErrorBody{
			{
				Status: http.StatusText(status),
				Detail: err.Error(),
				ID:     requestID,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
