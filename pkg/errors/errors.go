package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Authentication errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Authorization errors
	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// Not found errors
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeCallNotFound ErrorCode = "CALL_NOT_FOUND"

	// Call lifecycle errors
	ErrCodeUserUnavailable   ErrorCode = "USER_UNAVAILABLE"
	ErrCodeUserBusy          ErrorCode = "USER_BUSY"
	ErrCodeNotCallParty      ErrorCode = "NOT_CALL_PARTY"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// Signaling errors
	ErrCodeInvalidSignal   ErrorCode = "INVALID_SIGNAL"
	ErrCodePeerUnavailable ErrorCode = "PEER_UNAVAILABLE"

	// Internal errors
	ErrCodePersistFailure ErrorCode = "PERSIST_FAILURE"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase       ErrorCode = "DATABASE_ERROR"
	ErrCodeStorage        ErrorCode = "STORAGE_ERROR"
)

// AppError represents a structured application error with code, message, and HTTP status
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Details    any       `json:"details,omitempty"`
	Err        error     `json:"-"`
}

// Error implements the error interface, returning a formatted error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the given code and message
// The status code defaults to 500 Internal Server Error
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewWithStatus creates a new AppError with a specific HTTP status code
func NewWithStatus(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with an AppError, preserving the original error
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// WithDetails adds additional details to an AppError for debugging or client display
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// Validation errors
func ValidationError(message string) *AppError {
	return NewWithStatus(ErrCodeValidation, message, http.StatusBadRequest)
}

func InvalidInputError(message string) *AppError {
	return NewWithStatus(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// Authentication errors
func UnauthorizedError(message string) *AppError {
	return NewWithStatus(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func InvalidTokenError(message string) *AppError {
	return NewWithStatus(ErrCodeInvalidToken, message, http.StatusUnauthorized)
}

// Authorization errors
func ForbiddenError(message string) *AppError {
	return NewWithStatus(ErrCodeForbidden, message, http.StatusForbidden)
}

// Not found errors
func NotFoundError(resource string) *AppError {
	return NewWithStatus(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func CallNotFoundError() *AppError {
	return NewWithStatus(ErrCodeCallNotFound, "Call not found or already ended", http.StatusNotFound)
}

// Call lifecycle errors
func UserUnavailableError() *AppError {
	return NewWithStatus(ErrCodeUserUnavailable, "User is not connected", http.StatusConflict)
}

func UserBusyError() *AppError {
	return NewWithStatus(ErrCodeUserBusy, "User is in another call", http.StatusConflict)
}

func NotCallPartyError() *AppError {
	return NewWithStatus(ErrCodeNotCallParty, "You are not a party of this call", http.StatusForbidden)
}

func InvalidTransitionError(from, to string) *AppError {
	return NewWithStatus(ErrCodeInvalidTransition,
		fmt.Sprintf("Call cannot move from %s to %s", from, to), http.StatusConflict)
}

// Signaling errors
func InvalidSignalError(message string) *AppError {
	return NewWithStatus(ErrCodeInvalidSignal, message, http.StatusBadRequest)
}

func PeerUnavailableError() *AppError {
	return NewWithStatus(ErrCodePeerUnavailable, "Peer connection is gone", http.StatusConflict)
}

// Internal errors
func PersistFailureError(err error) *AppError {
	return &AppError{
		Code:       ErrCodePersistFailure,
		Message:    "Failed to persist record",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

func InternalError(message string) *AppError {
	return NewWithStatus(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(err error) *AppError {
	return &AppError{
		Code:       ErrCodeDatabase,
		Message:    "Database error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

func StorageError(err error) *AppError {
	return &AppError{
		Code:       ErrCodeStorage,
		Message:    "Storage error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsAppError checks if an error is an AppError type
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from an error, wrapping non-AppErrors as InternalError
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return InternalError(err.Error())
}
