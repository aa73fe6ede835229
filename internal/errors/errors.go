// Package errors provides the error taxonomy shared by the audit core and
// its collaborators. Lower layers return these sentinels (wrapped with the
// underlying cause) so errors.Is/As work all the way up to the HTTP layer,
// which renders Code and Message without leaking internal details.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so a wrapped copy still
// satisfies errors.Is against its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrTokenReused        = &AppError{Code: "TOKEN_REUSED", Message: "Refresh token has already been used", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountInactive    = &AppError{Code: "ACCOUNT_INACTIVE", Message: "Account is deactivated", StatusCode: http.StatusForbidden}
)

// Validation errors. None of these reach the unit-of-work, so they never
// produce audit rows.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Lookup errors.
var (
	ErrNotFound        = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrUserNotFound    = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrProfileNotFound = &AppError{Code: "PROFILE_NOT_FOUND", Message: "Profile not found", StatusCode: http.StatusNotFound}
)

// Unit-of-work and audit errors.
var (
	// ErrConcurrencyConflict means the stored concurrency token moved since
	// the entity was loaded. Nothing was written; reload and retry.
	ErrConcurrencyConflict = &AppError{Code: "CONCURRENCY_CONFLICT", Message: "The record was modified by another request", StatusCode: http.StatusConflict}

	// ErrAuditPersistence aborts the enclosing unit-of-work.
	ErrAuditPersistence = &AppError{Code: "AUDIT_PERSISTENCE_FAILURE", Message: "Audit record could not be written", StatusCode: http.StatusInternalServerError}

	ErrPersistence  = &AppError{Code: "PERSISTENCE_FAILURE", Message: "Changes could not be saved", StatusCode: http.StatusInternalServerError}
	ErrInvalidState = &AppError{Code: "INVALID_UOW_STATE", Message: "Unit of work is not in a valid state for this operation", StatusCode: http.StatusInternalServerError}
	ErrCancelled    = &AppError{Code: "UOW_CANCELLED", Message: "Unit of work was cancelled", StatusCode: 499}
)

// General errors.
var (
	ErrNotSupported   = &AppError{Code: "NOT_SUPPORTED", Message: "Operation not supported", StatusCode: http.StatusNotImplemented}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)
