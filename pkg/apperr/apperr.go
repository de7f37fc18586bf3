// Package apperr defines the error taxonomy shared by services and the HTTP
// layer. Every error that crosses a service boundary is either an *Error or
// is converted to one by From, which maps it to a stable machine code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Code is a stable, client-facing error identifier.
type Code string

const (
	Unauthorized  Code = "unauthorized"
	Forbidden     Code = "forbidden"
	InvalidInput  Code = "invalid_input"
	NotFound      Code = "not_found"
	UpstreamFetch Code = "upstream_fetch_error"
	Malformed     Code = "malformed_document"
	Internal      Code = "internal_error"
)

// Error carries a code, a human-readable message and, for InvalidInput,
// per-field messages.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code, so errors.Is(err, apperr.New(apperr.NotFound, ""))
// holds for any not-found error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Status maps the code to an HTTP status.
func (e *Error) Status() int { return StatusOf(e.Code) }

func StatusOf(c Code) int {
	switch c {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case InvalidInput, Malformed:
		return http.StatusUnprocessableEntity
	case NotFound:
		return http.StatusNotFound
	case UpstreamFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ─── Constructors ─────────────────────────────────────────────────────────────

func New(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause. The cause is logged, never shown to clients.
func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func Invalid(msg string, fields map[string]string) *Error {
	return &Error{Code: InvalidInput, Message: msg, Fields: fields}
}

// Field is shorthand for a single-field InvalidInput error.
func Field(field, msg string) *Error {
	return Invalid(msg, map[string]string{field: msg})
}

func NotFoundf(format string, args ...any) *Error { return Newf(NotFound, format, args...) }

// ─── Classification ───────────────────────────────────────────────────────────

// From converts any error into an *Error. gorm.ErrRecordNotFound becomes
// NotFound; anything unrecognised becomes Internal with err as its cause.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(NotFound, "Not found", err)
	}
	return Wrap(Internal, "Internal server error", err)
}

// CodeOf returns the code of err, Internal for untyped errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}
