package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode categorizes pipeline failures
type ErrorCode string

// Error codes surfaced by the pipeline
const (
	ErrCodeTableUnavailable   ErrorCode = "table_unavailable"
	ErrCodeImageDecode        ErrorCode = "image_decode_error"
	ErrCodeMissingInput       ErrorCode = "missing_input"
	ErrCodeDataIntegrity      ErrorCode = "data_integrity_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"

	// raised by the HTTP layer only
	ErrCodeUploadTooLarge ErrorCode = "upload_too_large"
	ErrCodeRequestTimeout ErrorCode = "request_timeout"
)

// HTTPStatus maps an ErrorCode to the status the HTTP layer answers with.
// Unknown codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeMissingInput:
		return http.StatusBadRequest
	case ErrCodeImageDecode:
		return http.StatusUnprocessableEntity
	case ErrCodeTableUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeUploadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeRequestTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the error type returned by every pipeline stage
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status for this error's code
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeOf extracts the ErrorCode from an error chain.
// Errors that are not AppErrors report ErrCodeInternalUnexpected.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalUnexpected
}

// IsCode reports whether err carries the given code
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
