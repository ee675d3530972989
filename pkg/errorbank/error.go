// Package errorbank defines the application error type shared by the
// services and transports. Each Kind maps to one HTTP status and one gRPC
// code.
package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindUnauthorized        Kind = "unauthorized"
	KindConflict            Kind = "conflict"
	KindNotFound            Kind = "not_found"
	KindUnprocessableEntity Kind = "unprocessable_entity"
	KindTooManyRequests     Kind = "too_many_requests"
	KindUnavailable         Kind = "unavailable"
	KindInternal            Kind = "internal"
)

var kinds = map[Kind]struct {
	status int
	code   codes.Code
}{
	KindBadRequest:          {http.StatusBadRequest, codes.InvalidArgument},
	KindUnauthorized:        {http.StatusUnauthorized, codes.Unauthenticated},
	KindConflict:            {http.StatusConflict, codes.AlreadyExists},
	KindNotFound:            {http.StatusNotFound, codes.NotFound},
	KindUnprocessableEntity: {http.StatusUnprocessableEntity, codes.FailedPrecondition},
	KindTooManyRequests:     {http.StatusTooManyRequests, codes.ResourceExhausted},
	KindUnavailable:         {http.StatusServiceUnavailable, codes.Unavailable},
	KindInternal:            {http.StatusInternalServerError, codes.Internal},
}

// AppError is an error with a category, a client-safe message and an
// optional cause that stays server-side.
type AppError struct {
	kind    Kind
	message string
	fields  []string
	cause   error
}

type Option func(*AppError)

// WithCause attaches the underlying error. It is reachable through
// errors.Is/As but never rendered to clients.
func WithCause(err error) Option {
	return func(e *AppError) {
		e.cause = err
	}
}

func New(kind Kind, message string, opts ...Option) *AppError {
	if _, ok := kinds[kind]; !ok {
		kind = KindInternal
	}
	if message == "" {
		message = string(kind)
	}
	e := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *AppError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Fields returns the field names attached by Validation, if any.
func (e *AppError) Fields() []string {
	if e == nil {
		return nil
	}
	return e.fields
}

// StatusCode resolves the HTTP status for the error kind.
func (e *AppError) StatusCode() int {
	return kinds[e.Kind()].status
}

// GRPCCode maps the error kind onto a gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	return kinds[e.Kind()].code
}

// GRPCStatus lets grpc/status convert the error without losing its kind.
// Internal errors carry a generic message.
func (e *AppError) GRPCStatus() *status.Status {
	msg := e.Message()
	if e.Kind() == KindInternal {
		msg = "internal error"
	}
	return status.New(e.GRPCCode(), msg)
}

func BadRequest(message string, opts ...Option) *AppError {
	return New(KindBadRequest, message, opts...)
}

func Unauthorized(message string, opts ...Option) *AppError {
	return New(KindUnauthorized, message, opts...)
}

func Conflict(message string, opts ...Option) *AppError {
	return New(KindConflict, message, opts...)
}

func NotFound(message string, opts ...Option) *AppError {
	return New(KindNotFound, message, opts...)
}

// Validation reports missing or malformed input fields, in the order given.
func Validation(fields []string, opts ...Option) *AppError {
	e := New(KindUnprocessableEntity, "missing fields: "+strings.Join(fields, ", "), opts...)
	e.fields = append([]string(nil), fields...)
	return e
}

func TooManyRequests(message string, opts ...Option) *AppError {
	return New(KindTooManyRequests, message, opts...)
}

// Unavailable is for transient backend outages such as an unreachable store.
func Unavailable(message string, opts ...Option) *AppError {
	return New(KindUnavailable, message, opts...)
}

func Internal(message string, opts ...Option) *AppError {
	return New(KindInternal, message, opts...)
}

// Is reports whether err carries an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var e *AppError
	return errors.As(err, &e) && e.kind == kind
}

// From returns the AppError carried by err, wrapping anything else as
// internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var e *AppError
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", WithCause(err))
}
