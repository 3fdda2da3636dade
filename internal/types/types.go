// Package types provides common type definitions shared across service and
// API layers.
package types

import "fmt"

// ServiceError represents a structured error returned from the service layer
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Service error codes
const (
	CodeInvalidSnapshot    = "INVALID_SNAPSHOT"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)
