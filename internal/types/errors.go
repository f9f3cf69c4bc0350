package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for flowgraph errors.
type ErrorCode string

// Graph error codes
const (
	GRAPH_INVALID        ErrorCode = "GRAPH_INVALID"
	GRAPH_CYCLE_DETECTED ErrorCode = "GRAPH_CYCLE_DETECTED"
	NODE_NOT_FOUND       ErrorCode = "NODE_NOT_FOUND"
	EDGE_NOT_FOUND       ErrorCode = "EDGE_NOT_FOUND"
)

// Dependent-property error codes
const (
	PROPS_INVALID ErrorCode = "PROPS_INVALID"
)

// Workflow definition error codes
const (
	WORKFLOW_PARSE_FAILED      ErrorCode = "WORKFLOW_PARSE_FAILED"
	WORKFLOW_VALIDATION_FAILED ErrorCode = "WORKFLOW_VALIDATION_FAILED"
)

// FlowError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type FlowError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *FlowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *FlowError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a FlowError with the same Code.
func (e *FlowError) Is(target error) bool {
	var flowErr *FlowError
	if errors.As(target, &flowErr) {
		return e.Code == flowErr.Code
	}
	return false
}

// NewError creates a new non-retryable FlowError with the given code and message.
func NewError(code ErrorCode, message string) *FlowError {
	return &FlowError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a FlowError for transient conditions that resolve
// after corrective action by the caller.
func NewRetryableError(code ErrorCode, message string) *FlowError {
	return &FlowError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// NewErrorf creates a new non-retryable FlowError with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *FlowError {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WrapError creates a new non-retryable FlowError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *FlowError {
	return &FlowError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}
