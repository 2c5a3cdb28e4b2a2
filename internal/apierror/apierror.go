// Package apierror defines the error kinds the API can answer with and the
// responder that renders them as JSON.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/terraconstructs/geoform/internal/validate"
)

// Kind classifies an API error. Each kind maps to exactly one HTTP status.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnprocessableEntity
	KindUnauthorized
	KindForbidden
	KindConflict
	KindPreconditionFailed
	KindNotFound
	KindInternalServerError
	// Router-level kinds, produced by plumbing rather than handlers.
	KindMethodNotAllowed
	KindRequestTimeout
	KindServiceUnavailable
)

// Validation failures are reported with 400, not 422.
var statusByKind = map[Kind]int{
	KindBadRequest:          http.StatusBadRequest,
	KindUnprocessableEntity: http.StatusBadRequest,
	KindUnauthorized:        http.StatusUnauthorized,
	KindForbidden:           http.StatusForbidden,
	KindConflict:            http.StatusConflict,
	KindPreconditionFailed:  http.StatusPreconditionFailed,
	KindNotFound:            http.StatusNotFound,
	KindInternalServerError: http.StatusInternalServerError,
	KindMethodNotAllowed:    http.StatusMethodNotAllowed,
	KindRequestTimeout:      http.StatusRequestTimeout,
	KindServiceUnavailable:  http.StatusServiceUnavailable,
}

var kindNames = map[Kind]string{
	KindBadRequest:          "bad request",
	KindUnprocessableEntity: "unprocessable entity",
	KindUnauthorized:        "unauthorized",
	KindForbidden:           "forbidden",
	KindConflict:            "conflict",
	KindPreconditionFailed:  "precondition failed",
	KindNotFound:            "not found",
	KindInternalServerError: "internal server error",
	KindMethodNotAllowed:    "method not allowed",
	KindRequestTimeout:      "request timeout",
	KindServiceUnavailable:  "service unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Fixed client-facing messages.
const (
	UnauthorizedMessage = "authentication is required to access this resource"
	InternalMessage     = "unexpected error has occurred"
)

// Error is an API error ready to be rendered.
type Error struct {
	Kind    Kind
	Message string
	// Fields is set only for KindUnprocessableEntity.
	Fields *validate.Errors

	cause error
}

func (e *Error) Error() string {
	if e.Kind == KindUnprocessableEntity && e.Fields != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Fields.Error())
	}
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithCause attaches an underlying error kept for logging and errors.Is.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// UnprocessableEntity reports every validation violation at once.
func UnprocessableEntity(fields *validate.Errors) *Error {
	if fields == nil {
		fields = validate.NewErrors()
	}
	return &Error{Kind: KindUnprocessableEntity, Message: "validation failed", Fields: fields}
}

// Unauthorized never carries detail about why authentication failed.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: UnauthorizedMessage}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func PreconditionFailed(message string) *Error {
	return &Error{Kind: KindPreconditionFailed, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func MethodNotAllowed(message string) *Error {
	return &Error{Kind: KindMethodNotAllowed, Message: message}
}

func RequestTimeout(message string) *Error {
	return &Error{Kind: KindRequestTimeout, Message: message}
}

func ServiceUnavailable(message string) *Error {
	return &Error{Kind: KindServiceUnavailable, Message: message}
}

// InternalServerError wraps err as a 500. The error text becomes the client
// message; a nil err yields the generic message.
func InternalServerError(err error) *Error {
	if err == nil {
		return &Error{Kind: KindInternalServerError, Message: InternalMessage}
	}
	return &Error{Kind: KindInternalServerError, Message: err.Error(), cause: err}
}

// From returns err as an *Error, coercing anything else to InternalServerError.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return InternalServerError(err)
}
