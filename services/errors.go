package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIndexState ErrorType = "index_state"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Validation Errors
	ErrInvalidInput    = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyMessage    = NewDomainError(ErrorTypeValidation, "message cannot be empty", nil)
	ErrMalformedRecord = NewDomainError(ErrorTypeValidation, "malformed catalog record", nil)

	// Index State Errors
	ErrIndexCreateFailed = NewDomainError(ErrorTypeIndexState, "search index creation failed", nil)
	ErrDimensionMismatch = NewDomainError(ErrorTypeIndexState, "vector dimension does not match index", nil)
	ErrUnsupportedMetric = NewDomainError(ErrorTypeIndexState, "unsupported similarity metric", nil)

	// Storage Errors
	ErrStorageUnavailable = NewDomainError(ErrorTypeStorage, "corpus store unreachable", nil)
	ErrStorageWriteFailed = NewDomainError(ErrorTypeStorage, "corpus store write failed", nil)

	// External Service Errors
	ErrEmbeddingFailed  = NewDomainError(ErrorTypeExternal, "embedding service call failed", nil)
	ErrGenerationFailed = NewDomainError(ErrorTypeExternal, "language model call failed", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsIndexStateError checks if an error is an index state error
func IsIndexStateError(err error) bool {
	return GetErrorType(err) == ErrorTypeIndexState
}

// IsStorageError checks if an error is a storage error
func IsStorageError(err error) bool {
	return GetErrorType(err) == ErrorTypeStorage
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// IsExternalError checks if an error is an external service error
func IsExternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeExternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external service error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// WrapStorage wraps an error as a storage error
func WrapStorage(message string, err error) error {
	return NewDomainError(ErrorTypeStorage, message, err)
}
