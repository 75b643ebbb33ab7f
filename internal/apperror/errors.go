// Package apperror classifies failures so the HTTP layer can map them to a status code.
package apperror

import (
	"errors"
	"net/http"
)

// Kind is the category of a failure
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindNotFoundOrUnauthorized
	KindConflict
	KindInsufficientStock
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFoundOrUnauthorized:
		return "not_found_or_unauthorized"
	case KindConflict:
		return "conflict"
	case KindInsufficientStock:
		return "insufficient_stock"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response status for the kind.
// NotFoundOrUnauthorized answers 404 so callers cannot probe for other merchants' records.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict, KindInsufficientStock:
		return http.StatusBadRequest
	case KindNotFound, KindNotFoundOrUnauthorized:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a client-safe message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and message, so package-level
// sentinels such as ErrInsufficientStock work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation reports a missing or malformed input
func Validation(message string) *Error { return newError(KindValidation, message) }

// NotFound reports a referenced entity that does not exist
func NotFound(message string) *Error { return newError(KindNotFound, message) }

// Unauthorized reports a missing or invalid credential
func Unauthorized(message string) *Error { return newError(KindUnauthorized, message) }

// NotFoundOrUnauthorized reports a failed ownership check
func NotFoundOrUnauthorized(message string) *Error {
	return newError(KindNotFoundOrUnauthorized, message)
}

// Conflict reports a uniqueness violation
func Conflict(message string) *Error { return newError(KindConflict, message) }

// Internal wraps an unexpected failure
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// ErrInsufficientStock is returned when an order asks for more than the product has
var ErrInsufficientStock = newError(KindInsufficientStock, "Insufficient stock")

// KindOf returns the kind of err; unclassified errors are internal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "Server error"
}
