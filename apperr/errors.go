// Package apperr defines the error categories surfaced by the service and
// their mapping onto HTTP status codes.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure. It is the only part of an error that
// leaves the process besides the human readable message.
type Kind string

const (
	InvalidArgument Kind = "INVALID_ARGUMENT"
	Unauthorized    Kind = "UNAUTHORIZED"
	Forbidden       Kind = "FORBIDDEN"
	NotFound        Kind = "NOT_FOUND"
	Conflict        Kind = "CONFLICT"
	Internal        Kind = "INTERNAL"
)

// Error carries a category, a client safe message and the optional cause.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgumentf(format string, args ...any) *Error { return newf(InvalidArgument, format, args...) }
func Unauthorizedf(format string, args ...any) *Error    { return newf(Unauthorized, format, args...) }
func Forbiddenf(format string, args ...any) *Error       { return newf(Forbidden, format, args...) }
func NotFoundf(format string, args ...any) *Error        { return newf(NotFound, format, args...) }
func Conflictf(format string, args ...any) *Error        { return newf(Conflict, format, args...) }

// Internalf wraps a collaborator failure. The cause is kept for logging and
// never rendered to clients.
func Internalf(err error, format string, args ...any) *Error {
	e := newf(Internal, format, args...)
	e.Err = err
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		e.Retryable = true
	}
	return e
}

// KindOf reports the category of err. Errors that were not produced by this
// package are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err belongs to the given category.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// HTTPStatus maps a category onto a status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Wrap passes categorized errors through and turns anything else into a
// retry-aware Internal error. Callers handle not-found sentinels first.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internalf(err, format, args...)
}
