package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	// Validation errors
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Storage covers both the database and the media store
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"

	// Depth pipeline failures (inference, transcode)
	ErrCodePipeline ErrorCode = "PIPELINE_ERROR"

	ErrCodeAPIRateLimit ErrorCode = "API_RATE_LIMIT"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Constraint names reported in the details of INVALID_INPUT errors
const (
	ConstraintInvalidMediaType     = "invalid_media_type"
	ConstraintInvalidSortField     = "invalid_sort_field"
	ConstraintInvalidSortDirection = "invalid_sort_direction"
	ConstraintInvalidAnnotation    = "invalid_annotation"
	ConstraintFileTooLarge         = "file_too_large"
	ConstraintMissingField         = "missing_field"
)

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeAPIRateLimit:
		return http.StatusTooManyRequests
	case ErrCodePipeline:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NotFound creates a not found error
func NotFound(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// Conflict creates a conflict error for an operation that cannot run in the current state
func Conflict(resource string, id interface{}, reason string) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf("%s %v: %s", resource, id, reason)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// InvalidInput reports which constraint a request violated
func InvalidInput(constraint, message string) *AppError {
	return New(ErrCodeInvalidInput, message).
		WithDetail("constraint", constraint)
}

// StorageError creates an error for a failed database or media store operation
func StorageError(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeStorage, fmt.Sprintf("storage %s failed", operation)).
		WithDetail("operation", operation)
}

// PipelineError creates an error for a failed depth pipeline stage
func PipelineError(stage string, cause error) *AppError {
	return Wrap(cause, ErrCodePipeline, fmt.Sprintf("depth pipeline %s failed", stage)).
		WithDetail("stage", stage)
}

// As extracts the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific type
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}

// Constraint returns the violated constraint of an INVALID_INPUT error, if any
func Constraint(err error) string {
	appErr, ok := As(err)
	if !ok || appErr.Details == nil {
		return ""
	}
	c, _ := appErr.Details["constraint"].(string)
	return c
}
