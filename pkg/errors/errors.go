package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Common error constructors

// InvalidArgument creates a 400 error for malformed or missing input.
// Always raised before any state is touched.
func InvalidArgument(message string, err error) *AppError {
	return &AppError{
		Code:    "INVALID_ARGUMENT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// Unauthorized creates a 401 error
func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

// Forbidden creates a 403 error for a principal that lacks rights for the
// requested transition
func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: message,
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

// InvalidState creates a 409 error for a transition the current ride status
// does not permit
func InvalidState(message string, err error) *AppError {
	return &AppError{
		Code:    "INVALID_STATE",
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// Conflict creates a 409 error for a violated uniqueness invariant
func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// Dependency creates a 424 error: a counter-party write failed after an
// earlier write in the same operation already committed. The first write is
// not rolled back, so the caller can decide whether to compensate.
func Dependency(message string, err error) *AppError {
	return &AppError{
		Code:    "DEPENDENCY_FAILED",
		Message: message,
		Status:  http.StatusFailedDependency,
		Err:     err,
	}
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Domain-specific errors

var (
	ErrRideNotFound    = NotFound("Ride not found", nil)
	ErrAccountNotFound = NotFound("Account not found", nil)
	ErrDriverNotFound  = NotFound("Driver not found", nil)
	ErrNoActiveRide    = NotFound("No active ride found", nil)

	ErrRiderHasActiveRide  = InvalidState("You already have an active ride", nil)
	ErrDriverAssigned      = Conflict("Driver already assigned to this ride", nil)
	ErrDriverNotAvailable  = InvalidState("Driver is not available", nil)
	ErrInvalidCoordinates  = InvalidArgument("Valid pickup and drop coordinates required", nil)
	ErrNotAssignedDriver   = Forbidden("You are not the driver assigned to this ride", nil)
	ErrNotRideOwner        = Forbidden("You are not the rider who requested this ride", nil)
	ErrInvalidCredentials  = Unauthorized("Invalid credentials", nil)
	ErrEmailTaken          = Conflict("An account with this email already exists", nil)
	ErrInvalidRefreshToken = Unauthorized("Refresh token is expired or revoked", nil)
)

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsDependency reports whether err is a post-commit counter-party failure,
// as opposed to a pre-mutation validation failure.
func IsDependency(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == "DEPENDENCY_FAILED"
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
