// Package apperr defines the structured failures raised by services and
// their translation to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	NotFound        Kind = "NotFound"
	AlreadyExists   Kind = "AlreadyExists"
	Forbidden       Kind = "Forbidden"
	Unauthorized    Kind = "Unauthorized"
	InvalidRequest  Kind = "InvalidRequest"
	ConflictState   Kind = "ConflictState"
	ProviderFailure Kind = "ProviderFailure"
	Internal        Kind = "Internal"
)

// Error is a failure with a kind. Message is safe to show for 4xx kinds.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or Internal for unstructured errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a kind to exactly one HTTP status.
func Status(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists, ConflictState:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	case InvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Shorthands used across services.

func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return New(Forbidden, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...interface{}) *Error {
	return New(ConflictState, fmt.Sprintf(format, args...))
}

func Existsf(format string, args ...interface{}) *Error {
	return New(AlreadyExists, fmt.Sprintf(format, args...))
}

func Invalidf(format string, args ...interface{}) *Error {
	return New(InvalidRequest, fmt.Sprintf(format, args...))
}
