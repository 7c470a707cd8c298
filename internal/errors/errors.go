// Package errors defines the closed error taxonomy for grading runs.
//
// Every failure that can surface in a step result is identified by a Code,
// and every code belongs to exactly one Category. Callers classify errors
// with CodeOf and Code.Category; message text is never inspected.
package errors

import (
	"errors"
	"fmt"
)

// GradingError is an error carrying a taxonomy code.
type GradingError struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GradingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *GradingError) Unwrap() error {
	return e.Cause
}

// New creates a new GradingError.
func New(code Code, message string) *GradingError {
	return &GradingError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new GradingError with a formatted message.
func Newf(code Code, format string, args ...any) *GradingError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new GradingError wrapping an existing error.
func Wrap(code Code, message string, cause error) *GradingError {
	return &GradingError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the taxonomy code from err. A nil error yields CodeNone;
// an error with no GradingError in its chain yields CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeNone
	}
	var ge *GradingError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return CodeUnknown
}

// CategoryOf extracts the category of err's code.
func CategoryOf(err error) Category {
	return CodeOf(err).Category()
}
