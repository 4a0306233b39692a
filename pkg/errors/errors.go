// Package errors carries typed application errors and the HTTP contract of each code.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	CodeIdempotency      Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeDependency       Code = "DEPENDENCY_ERROR"
)

// codeSpec describes how a code is presented to API clients. exposeMessage lets
// the error's own message replace the generic one.
type codeSpec struct {
	status        int
	public        string
	retryable     bool
	exposeMessage bool
	exposeDetails bool
}

var specs = map[Code]codeSpec{
	CodeValidation:       {status: http.StatusBadRequest, public: "validation failed", exposeMessage: true, exposeDetails: true},
	CodeNotFound:         {status: http.StatusNotFound, public: "resource not found", exposeMessage: true},
	CodeConflict:         {status: http.StatusConflict, public: "conflict detected", exposeMessage: true},
	CodeCapacityExceeded: {status: http.StatusConflict, public: "capacity exceeded", exposeMessage: true, exposeDetails: true},
	CodeIdempotency:      {status: http.StatusConflict, public: "idempotency key reused", exposeMessage: true, exposeDetails: true},
	CodeInternal:         {status: http.StatusInternalServerError, public: "internal server error", retryable: true},
	CodeDependency:       {status: http.StatusServiceUnavailable, public: "dependency unavailable", retryable: true, exposeMessage: true, exposeDetails: true},
}

func (c Code) spec() codeSpec {
	if s, ok := specs[c]; ok {
		return s
	}
	return specs[CodeInternal]
}

// HTTPStatus maps the code to a response status; unknown codes are 500.
func (c Code) HTTPStatus() int { return c.spec().status }

// Retryable reports whether a client may retry the same request unchanged.
func (c Code) Retryable() bool { return c.spec().retryable }

func (c Code) PublicMessage() string { return c.spec().public }

func (c Code) ExposesMessage() bool { return c.spec().exposeMessage }

func (c Code) ExposesDetails() bool { return c.spec().exposeDetails }

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches client-facing details; they are only rendered for codes
// that expose details.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost typed error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries code anywhere in its chain.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
