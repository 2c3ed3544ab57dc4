// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies command errors so that scripts can make
// decisions from the exit status without parsing error text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// unknown flags, wrong argument count, unparseable values.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced file or host
	// implementation does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryIntegrity indicates an artifact failed verification: a
	// digest mismatch or a malformed module.
	CategoryIntegrity ErrorCategory = "integrity"

	// CategoryInternal indicates an unexpected error: I/O failures,
	// failing module code, bugs.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by CLI commands. It wraps
// an inner error, preserving the full chain for errors.Is and
// errors.As.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

// Error returns the underlying error message. The category is carried
// by the exit status, not the text.
func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// ExitCode maps the category to a process exit status.
func (e *ToolError) ExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryIntegrity:
		return 3
	case CategoryNotFound:
		return 4
	default:
		return 1
	}
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Integrity creates an integrity error: an artifact failed verification.
func Integrity(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryIntegrity, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// ExitCode returns the exit status for an error returned by Execute:
// 0 for nil, the code of an [ExitError] or [ToolError] in the chain,
// otherwise 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.ExitCode()
	}
	return 1
}
