// Package errors defines the error taxonomy shared by the authcore packages.
package errors

import (
	"errors"
	"fmt"
)

// Error types
const (
	// ErrInvalidArgument is returned when an invalid argument is provided
	ErrInvalidArgument = "invalid_argument"

	// ErrAuthentication is returned when a request fails with a 401-class
	// status and could not be recovered via token refresh
	ErrAuthentication = "authentication"

	// ErrAuthorization is returned when the user is authenticated but lacks
	// the rights for the requested operation (403-class)
	ErrAuthorization = "authorization"

	// ErrTransport is returned when a transient transport failure persists
	// past the retry budget
	ErrTransport = "transport"

	// ErrRefreshInvalid is returned when the refresh token is absent or
	// rejected by the identity provider
	ErrRefreshInvalid = "refresh_invalid"

	// ErrStorage is returned for credential storage failures that cannot be
	// absorbed by the in-memory fallback
	ErrStorage = "storage"

	// ErrSessionExpired is returned when the session was terminated by the
	// idle or absolute timeout policy
	ErrSessionExpired = "session_expired"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error

	// Status is the HTTP status that produced this error, if any
	Status int

	// Attempts is the number of transport attempts made before giving up,
	// if the error came out of the retry loop
	Attempts int
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string, cause error) *Error {
	return NewError(ErrInvalidArgument, message, cause)
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string, cause error) *Error {
	e := NewError(ErrAuthentication, message, cause)
	e.Status = 401
	return e
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(message string, cause error) *Error {
	e := NewError(ErrAuthorization, message, cause)
	e.Status = 403
	return e
}

// NewTransportError creates a new transport error carrying the last observed
// status and the attempt count
func NewTransportError(message string, cause error, status, attempts int) *Error {
	e := NewError(ErrTransport, message, cause)
	e.Status = status
	e.Attempts = attempts
	return e
}

// NewRefreshInvalidError creates a new refresh-invalid error
func NewRefreshInvalidError(message string, cause error) *Error {
	return NewError(ErrRefreshInvalid, message, cause)
}

// NewStorageError creates a new storage error
func NewStorageError(message string, cause error) *Error {
	return NewError(ErrStorage, message, cause)
}

// NewSessionExpiredError creates a new session expired error
func NewSessionExpiredError(message string, cause error) *Error {
	return NewError(ErrSessionExpired, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

func is(err error, errorType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errorType
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return is(err, ErrInvalidArgument)
}

// IsAuthentication checks if the error is an authentication error
func IsAuthentication(err error) bool {
	return is(err, ErrAuthentication)
}

// IsAuthorization checks if the error is an authorization error
func IsAuthorization(err error) bool {
	return is(err, ErrAuthorization)
}

// IsTransport checks if the error is a transport error
func IsTransport(err error) bool {
	return is(err, ErrTransport)
}

// IsRefreshInvalid checks if the error is a refresh-invalid error
func IsRefreshInvalid(err error) bool {
	return is(err, ErrRefreshInvalid)
}

// IsStorage checks if the error is a storage error
func IsStorage(err error) bool {
	return is(err, ErrStorage)
}

// IsSessionExpired checks if the error is a session expired error
func IsSessionExpired(err error) bool {
	return is(err, ErrSessionExpired)
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return is(err, ErrInternal)
}
