package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable category of an application error. Its
// string value is the "code" field of the response envelope.
type ErrorCode string

const (
	ErrCodeValidation        ErrorCode = "VALIDATION"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeTwoFactorRequired ErrorCode = "TWO_FACTOR_REQUIRED"
	ErrCodeEmailNotVerified  ErrorCode = "EMAIL_NOT_VERIFIED"
	ErrCodePhoneNotVerified  ErrorCode = "PHONE_NOT_VERIFIED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed  ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCodeSignatureInvalid  ErrorCode = "SIGNATURE_INVALID"
	ErrCodeInternal          ErrorCode = "INTERNAL"
	// ErrCodeTimeout and ErrCodeCanceled classify context failures from the
	// data layer. Clients see them as INTERNAL.
	ErrCodeTimeout  ErrorCode = "TIMEOUT"
	ErrCodeCanceled ErrorCode = "CANCELED"
)

var statusByCode = map[ErrorCode]int{
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeTwoFactorRequired: http.StatusUnauthorized,
	ErrCodeEmailNotVerified:  http.StatusForbidden,
	ErrCodePhoneNotVerified:  http.StatusForbidden,
	ErrCodeForbidden:         http.StatusForbidden,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeMethodNotAllowed:  http.StatusMethodNotAllowed,
	ErrCodeConflict:          http.StatusConflict,
	ErrCodeRateLimited:       http.StatusTooManyRequests,
	ErrCodeSignatureInvalid:  http.StatusUnauthorized,
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeTimeout:           http.StatusInternalServerError,
	ErrCodeCanceled:          http.StatusInternalServerError,
}

// HTTPStatus returns the response status for the code; unknown codes are 500.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Public reports whether the error message may be shown to clients.
func (c ErrorCode) Public() bool {
	switch c {
	case ErrCodeInternal, ErrCodeTimeout, ErrCodeCanceled, ErrCodeSignatureInvalid:
		return false
	case "":
		return false
	default:
		return true
	}
}

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the input that caused a validation or conflict error.
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newErr(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError { return newErr(ErrCodeNotFound, message) }

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newErr(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError { return newErr(ErrCodeConflict, message) }

// Validation creates a new Validation error.
func Validation(message string) *AppError { return newErr(ErrCodeValidation, message) }

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return newErr(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

func Unauthorized(message string) *AppError { return newErr(ErrCodeUnauthorized, message) }

func Forbidden(message string) *AppError { return newErr(ErrCodeForbidden, message) }

func RateLimited(message string) *AppError { return newErr(ErrCodeRateLimited, message) }

// SignatureInvalid never carries detail about why verification failed.
func SignatureInvalid() *AppError { return newErr(ErrCodeSignatureInvalid, "invalid signature") }

// Internal creates a new Internal error.
func Internal(message string) *AppError { return newErr(ErrCodeInternal, message) }

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// As returns the outermost AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Field
	}
	return ""
}
