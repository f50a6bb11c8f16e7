package apperr

import (
	"errors"
	"net/http"
)

// Error codes returned in the response envelope.
const (
	CodeNotFound     = "non_existent"
	CodeInvalidEntry = "invalid_entry"
	CodeUnauthorized = "unauthorized_user"
	CodeInvalidParam = "invalid_param"
	CodeServerError  = "server_error"
)

// Error is a request-level error with an HTTP status, an envelope code and,
// for validation errors, a field-to-message map.
type Error struct {
	Status  int
	Code    string
	Message string
	Data    map[string]string
}

func (e *Error) Error() string { return e.Message }

// NotFound reports an absent entity or one not owned by the caller.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

// Validation reports a single-field validation failure as a 422 with a
// field-to-message map.
func Validation(field, message string) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeInvalidEntry,
		Message: "Invalid Entry",
		Data:    map[string]string{field: message},
	}
}

// ValidationMap reports multiple field failures at once.
func ValidationMap(data map[string]string) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeInvalidEntry,
		Message: "Invalid Entry",
		Data:    data,
	}
}

// Unauthorized reports a missing, invalid or expired credential.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

// InvalidParam reports a malformed query parameter.
func InvalidParam(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidParam, Message: message}
}

// Server reports an unexpected internal failure.
func Server(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeServerError, Message: message}
}

// From extracts an *Error from err, wrapping anything else as a generic server
// error so handlers never leak internals.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Server("Something went wrong")
}
