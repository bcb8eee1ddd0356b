// Package apperr defines the error taxonomy every handler converts to.
// Nothing propagates to a global handler: services return *Error values and
// handlers map them to HTTP status codes locally.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error into the portal's response taxonomy.
type Kind int

const (
	// Unauthenticated: no or invalid session -> 401
	Unauthenticated Kind = iota
	// Forbidden: authenticated but fails ownership/role check -> 403
	Forbidden
	// NotFound: row absent or filtered out by ownership -> 404
	NotFound
	// Validation: bad input, oversized file, duplicate unique key -> 400
	Validation
	// Internal: unexpected database or I/O failure -> 500
	Internal
)

// Error carries a user-facing message, an optional stable code and the
// taxonomy kind. The wrapped cause is logged server-side only.
type Error struct {
	Kind    Kind
	Code    string // stable machine code, e.g. CROSS_TENANT_DENIED
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status maps the kind to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WithCode(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap builds an Internal error hiding the cause from the client.
func Wrap(cause error, message string) *Error {
	return &Error{Kind: Internal, Message: message, cause: cause}
}

// From extracts an *Error, downgrading unknown errors to Internal with a
// generic message so no database detail leaks to the client.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: Internal, Message: "Errore del server", cause: err}
}
