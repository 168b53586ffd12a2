package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies every failure surfaced by the gateway or coordinator.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeForbidden          ErrorCode = "forbidden"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeConflict           ErrorCode = "conflict"
	CodeInternal           ErrorCode = "internal"
)

// Error is the shared error shape. Coordinator-side errors are delivered only
// to the triggering connection; gateway-side errors map to HTTP statuses.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts an *Error from an error chain, defaulting to internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: err.Error()}
}

// HTTPStatus maps an error code to the status the REST surface responds with.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case CodeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
