// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}

// AlertError is returned when a request breaks an id precondition
// (id on a create, missing or mismatched id on an update).
type AlertError struct {
	Detail     string `json:"detail"`
	EntityName string `json:"entityName"`
	ErrorKey   string `json:"errorKey"`
}

func NewAlert(msg, entityName, errorKey string) *AlertError {
	return &AlertError{Detail: msg, EntityName: entityName, ErrorKey: errorKey}
}
