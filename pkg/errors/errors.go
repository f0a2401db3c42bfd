// Package errors carries the coded error type every service returns. The code
// decides the HTTP status and whether the message is safe to show a caller.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is exposed over HTTP.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
	// CallerMessage lets the error's own message replace PublicMessage.
	CallerMessage  bool
	DetailsAllowed bool
	Retryable      bool
}

var catalog = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", CallerMessage: true, DetailsAllowed: true},
	CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", CallerMessage: true},
	CodeForbidden:     {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied", CallerMessage: true},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", CallerMessage: true},
	CodeConflict:      {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", CallerMessage: true},
	CodeStateConflict: {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "state transition disallowed", CallerMessage: true, DetailsAllowed: true},
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
	CodeDependency:    {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "dependency unavailable", DetailsAllowed: true, Retryable: true},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	meta, ok := catalog[code]
	if !ok {
		meta = catalog[CodeInternal]
	}
	return meta
}

// Error is a coded failure. The zero value is never handed out; use New or Wrap.
// Methods are nil-safe and treat a nil *Error as an empty internal error.
type Error struct {
	code    Code
	msg     string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return Wrap(code, nil, message)
}

func Newf(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, fmt.Sprintf(format, args...))
}

// Wrap attaches cause so errors.Is/As still reach it.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{code: code, msg: message, cause: cause}
}

// WithDetails sets a payload rendered next to the message when the code allows it.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Code() Code {
	if e == nil || e.code == "" {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.msg
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Error renders "CODE: message" plus ": cause" when wrapped.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := string(e.code) + ": " + e.msg
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Public is what a caller may see of an error.
type Public struct {
	Status    int
	Code      Code
	Message   string
	Details   any
	Retryable bool
}

// Public applies the code's metadata: internal text and details stay hidden
// unless the code allows them.
func (e *Error) Public() Public {
	code := e.Code()
	meta := MetadataFor(code)
	out := Public{Status: meta.HTTPStatus, Code: code, Message: meta.PublicMessage, Retryable: meta.Retryable}
	if meta.CallerMessage && e.Message() != "" {
		out.Message = e.Message()
	}
	if meta.DetailsAllowed {
		out.Details = e.Details()
	}
	return out
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if !stdErrors.As(err, &typed) {
		return nil
	}
	return typed
}

// CodeOf returns CodeInternal for untyped errors.
func CodeOf(err error) Code {
	return As(err).Code()
}

func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
