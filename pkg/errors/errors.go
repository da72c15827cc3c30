// Package errors provides structured error types for the fretsheet application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// Grid-specific rejections (INCOMPATIBLE_DIAGRAM, GRID_FULL) are caller-side
// conditions: the sheet is left unchanged and the caller decides how to warn.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGrid, "malformed grid selection: %q", value)
//	if errors.Is(err, errors.ErrCodeInvalidGrid) {
//	    // keep the previous grid
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "failed to write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidStyle   Code = "INVALID_STYLE"
	ErrCodeInvalidGrid    Code = "INVALID_GRID"
	ErrCodeInvalidDiagram Code = "INVALID_DIAGRAM"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Sheet editing rejections
	ErrCodeIncompatible Code = "INCOMPATIBLE_DIAGRAM"
	ErrCodeGridFull     Code = "GRID_FULL"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeSheetNotFound Code = "SHEET_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	var ie *IncompatibleError
	if errors.As(err, &ie) {
		return code == ErrCodeIncompatible
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ie *IncompatibleError
	if errors.As(err, &ie) {
		return ErrCodeIncompatible
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var ie *IncompatibleError
	if errors.As(err, &ie) {
		return ie.Error()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IncompatibleError reports a diagram whose fret count does not match the
// fret class the grid expects.
type IncompatibleError struct {
	Expected int // Fret count the grid expects
	Actual   int // Fret count of the submitted diagram
}

// Error implements the error interface.
func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("this diagram has %d frets, but the current grid expects %d-fret diagrams", e.Actual, e.Expected)
}

// Code returns the error code for this error type.
func (e *IncompatibleError) Code() Code {
	return ErrCodeIncompatible
}
