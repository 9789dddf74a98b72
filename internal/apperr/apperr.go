// Package apperr defines the application error taxonomy and its mapping to
// HTTP statuses. Services return these; handlers translate them at the
// request boundary into {error, message} JSON bodies.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeValidation       Code = "validation_error"
	CodeUnauthorized     Code = "unauthorized"
	CodeForbidden        Code = "forbidden"
	CodeNotFound         Code = "not_found"
	CodeDuplicate        Code = "duplicate"
	CodeEvidenceRequired Code = "evidence_required"
	CodeInvalidStatus    Code = "invalid_status"
	CodeInvalidID        Code = "invalid_identifier"
	CodeInvalidOperation Code = "invalid_operation"
	CodeConflict         Code = "conflict"
	CodeStorage          Code = "storage_error"
)

// Error carries a taxonomy code, a human-readable message, and optionally
// the underlying cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus returns the response status for the error's code.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeEvidenceRequired, CodeInvalidStatus, CodeInvalidID, CodeInvalidOperation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicate, CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation reports missing or malformed input.
func Validation(format string, args ...interface{}) *Error {
	return newf(CodeValidation, format, args...)
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(format string, args ...interface{}) *Error {
	return newf(CodeUnauthorized, format, args...)
}

// Forbidden reports an authenticated but unentitled caller.
func Forbidden(format string, args ...interface{}) *Error {
	return newf(CodeForbidden, format, args...)
}

// NotFound reports that no record matched.
func NotFound(format string, args ...interface{}) *Error {
	return newf(CodeNotFound, format, args...)
}

// Duplicate reports a uniqueness violation.
func Duplicate(format string, args ...interface{}) *Error {
	return newf(CodeDuplicate, format, args...)
}

// EvidenceRequired reports a close attempt without resolution photos.
func EvidenceRequired(format string, args ...interface{}) *Error {
	return newf(CodeEvidenceRequired, format, args...)
}

// InvalidStatus reports an unrecognized lifecycle status value.
func InvalidStatus(format string, args ...interface{}) *Error {
	return newf(CodeInvalidStatus, format, args...)
}

// InvalidID reports a malformed record identifier.
func InvalidID(format string, args ...interface{}) *Error {
	return newf(CodeInvalidID, format, args...)
}

// InvalidOperation reports a structurally valid but disallowed request,
// such as an admin revoking their own role or reopening a closed complaint.
func InvalidOperation(format string, args ...interface{}) *Error {
	return newf(CodeInvalidOperation, format, args...)
}

// Conflict reports an optimistic-concurrency version mismatch.
func Conflict(format string, args ...interface{}) *Error {
	return newf(CodeConflict, format, args...)
}

// Storage wraps an underlying store failure.
func Storage(err error) *Error {
	return &Error{Code: CodeStorage, Message: "storage operation failed", cause: err}
}

// From extracts an *Error from err, wrapping unknown errors as Storage.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Storage(err)
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
