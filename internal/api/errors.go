package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/savings-tracker/internal/storage"
	"github.com/savings-tracker/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// mapServiceError maps service and storage errors to HTTP status codes.
func mapServiceError(err error) (int, string, string) {
	var serviceErr *types.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Code {
		case types.CodeInvalidSnapshot, types.CodeInvalidParameter:
			return http.StatusBadRequest, ErrCodeInvalidInput, serviceErr.Message
		case types.CodeStorageUnavailable:
			return http.StatusServiceUnavailable, ErrCodeServiceUnavailable, serviceErr.Message
		default:
			return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred"
		}
	}

	switch {
	case errors.Is(err, storage.ErrSnapshotRejected):
		return http.StatusBadRequest, ErrCodeInvalidInput, "Snapshot rejected by the ledger"
	case errors.Is(err, storage.ErrStorageUnreachable), errors.Is(err, storage.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Storage is unavailable"
	}

	return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred"
}
