// Package apperr defines the error taxonomy shared by services and HTTP
// handlers. Services return *Error values; handlers translate the Kind into a
// status code and expose only Message to the client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInsufficientPermissions
	KindInvalidCredentials
	KindInvalidToken
	KindValidation
	KindConflict
	KindNotFound
	KindNoThemesAvailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindInsufficientPermissions:
		return "INSUFFICIENT_PERMISSIONS"
	case KindInvalidCredentials:
		return "INVALID_CREDENTIALS"
	case KindInvalidToken:
		return "INVALID_TOKEN"
	case KindValidation:
		return "VALIDATION"
	case KindConflict:
		return "CONFLICT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindNoThemesAvailable:
		return "NO_THEMES_AVAILABLE"
	default:
		return "INTERNAL"
	}
}

// Error is an application error with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an *Error carrying err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Validation(message string) *Error      { return New(KindValidation, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }

// Internal wraps an unexpected failure. message is what the client sees.
func Internal(message string, err error) *Error { return Wrap(KindInternal, message, err) }

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps kind to the status code returned by the API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated, KindInvalidCredentials, KindInvalidToken:
		return http.StatusUnauthorized
	case KindInsufficientPermissions:
		return http.StatusForbidden
	case KindValidation, KindNoThemesAvailable:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
