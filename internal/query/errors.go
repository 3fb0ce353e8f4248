package query

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes a query failure.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed input rejected before any I/O.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeExecution indicates the store rejected the compiled statement.
	ErrCodeExecution ErrorCode = "EXECUTION"

	// ErrCodeDeserialization indicates a stored reaction payload could not be parsed.
	ErrCodeDeserialization ErrorCode = "DESERIALIZATION"

	// ErrCodeInternal indicates a logic fault, such as compiling a variant
	// that was not built through its constructor.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error is the reportable query failure.
//
// It is terminal: nothing in this module retries an Error. The HTTP layer
// maps it to a 400 response, except INTERNAL which is a 500.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Pattern is the offending pattern, when one is involved.
	Pattern string

	// Cause is the underlying error (driver or decoder), if any.
	Cause error

	// Details carries diagnostic context such as the SQL text or SQLSTATE.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Pattern != "" {
		msg = fmt.Sprintf("%s (pattern=%q)", msg, e.Pattern)
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

// WithDetail adds a diagnostic key/value and returns the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// UnavailableError reports that the store could not be reached: the pool
// could not hand out a connection, the server is down, or the connection
// broke mid-statement. Unlike Error it is retryable.
type UnavailableError struct {
	// Op names the step that failed ("acquire", "query", ...).
	Op string

	// Cause is the underlying driver error.
	Cause error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable (%s): %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the caller may retry. Always true.
func (e *UnavailableError) Retryable() bool {
	return true
}

// NewValidationError creates a validation Error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInternalError creates an Error for a logic fault.
func NewInternalError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsQueryError returns true if err is (or wraps) an *Error of any code.
func IsQueryError(err error) bool {
	var qe *Error
	return errors.As(err, &qe)
}

// IsValidationError returns true if err is a validation *Error.
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsExecutionError returns true if err is an execution *Error.
func IsExecutionError(err error) bool {
	return hasCode(err, ErrCodeExecution)
}

// IsDeserializationError returns true if err is a deserialization *Error.
func IsDeserializationError(err error) bool {
	return hasCode(err, ErrCodeDeserialization)
}

// IsUnavailable returns true if err is (or wraps) an *UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

func hasCode(err error, code ErrorCode) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}
