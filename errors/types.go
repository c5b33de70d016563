package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Manifest errors
	ErrCodeManifestNotFound ErrorCode = "MANIFEST_NOT_FOUND"
	ErrCodeManifestInvalid  ErrorCode = "MANIFEST_INVALID"

	// Remote URL errors
	ErrCodeNoMatchingScheme ErrorCode = "NO_MATCHING_SCHEME"

	// Repository state errors
	ErrCodeCorruptRepository ErrorCode = "CORRUPT_REPOSITORY"
	ErrCodeNotInitialized    ErrorCode = "NOT_INITIALIZED"

	// Parallel execution errors
	ErrCodeAggregatedOperation ErrorCode = "AGGREGATED_OPERATION"

	// Command execution errors
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// RasError represents a structured error with context
type RasError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *RasError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *RasError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *RasError) WithDetail(key string, value interface{}) *RasError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *RasError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// Failures returns the individual errors carried by an aggregated error.
// For any other error it returns nil.
func (e *RasError) Failures() []error {
	if e.Code != ErrCodeAggregatedOperation || e.Cause == nil {
		return nil
	}
	if joined, ok := e.Cause.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{e.Cause}
}

// New creates a new RasError
func New(code ErrorCode, message string) *RasError {
	return &RasError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a RasError
func Wrap(err error, code ErrorCode, message string) *RasError {
	return &RasError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether any error in err's chain is a RasError with the given code.
// Aggregated errors are searched through every carried failure.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	if rasErr, ok := err.(*RasError); ok && rasErr.Code == code {
		return true
	}

	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return Is(u.Unwrap(), code)
	}
	return false
}

// GetCode extracts the code of the outermost RasError in err's chain
func GetCode(err error) ErrorCode {
	var rasErr *RasError
	if stderrors.As(err, &rasErr) {
		return rasErr.Code
	}
	return ""
}

// As finds the first RasError in err's chain.
func As(err error) (*RasError, bool) {
	var rasErr *RasError
	if stderrors.As(err, &rasErr) {
		return rasErr, true
	}
	return nil, false
}
