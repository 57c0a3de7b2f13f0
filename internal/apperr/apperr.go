// Package apperr defines the error taxonomy shared by the repository, the
// lifecycle coordinator and the inventory façade. Nothing below the store
// boundary returns a driver error; everything is one of the kinds here.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindValidationFailed    Kind = "validation_failed"
	KindConflictAlreadyOpen Kind = "conflict_already_open"
	KindIntegrityWarning    Kind = "integrity_warning"
	KindTransient           Kind = "transient"
)

// Error is the structured error type.
type Error struct {
	Kind    Kind
	Op      string            // operation that failed, e.g. "store.create_usage_period"
	Message string            // human readable, safe to show to API callers
	Meta    map[string]string // optional context (item_id, period_id, ...)
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithMeta adds a context value and returns the error for chaining.
func (e *Error) WithMeta(key, value string) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]string)
	}
	e.Meta[key] = value
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidationFailed    = &Error{Kind: KindValidationFailed, Message: "validation failed"}
	ErrConflictAlreadyOpen = &Error{Kind: KindConflictAlreadyOpen, Message: "usage period already open"}
	ErrIntegrityWarning    = &Error{Kind: KindIntegrityWarning, Message: "integrity warning"}
	ErrTransient           = &Error{Kind: KindTransient, Message: "transient store failure"}
)

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// NotFound is a shorthand for a KindNotFound error.
func NotFound(op, what, id string) *Error {
	return New(KindNotFound, op, what+" not found").WithMeta("id", id)
}

// Validation is a shorthand for a KindValidationFailed error.
func Validation(op, format string, args ...any) *Error {
	return New(KindValidationFailed, op, fmt.Sprintf(format, args...))
}

// Conflict is a shorthand for a KindConflictAlreadyOpen error.
func Conflict(op, message string) *Error {
	return New(KindConflictAlreadyOpen, op, message)
}

// KindOf returns the kind of err, or "" when err is not (and does not wrap)
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Retryable reports whether err may succeed if retried. Only transient store
// failures qualify; conflicts need a re-read first.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

// HTTPStatus maps a kind to the status code the HTTP adapter returns.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindConflictAlreadyOpen:
		return http.StatusConflict
	case KindIntegrityWarning:
		return http.StatusOK
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
