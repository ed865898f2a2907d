// Package errors provides error types and utilities for the autothread MCP server
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the type of error for MCP protocol
type ErrorCode string

const (
	InvalidInput       ErrorCode = "invalid_input"
	NotFound           ErrorCode = "not_found"
	LengthExceeded     ErrorCode = "length_exceeded"
	PartialPublish     ErrorCode = "partial_publish"
	ParentUnresolvable ErrorCode = "parent_unresolvable"
	RateLimited        ErrorCode = "rate_limited"
	Timeout            ErrorCode = "timeout"
	Unauthorized       ErrorCode = "unauthorized"
	RemoteError        ErrorCode = "remote_error"
	InternalError      ErrorCode = "internal_error"
)

// MCPError represents an error that can be returned via the MCP protocol
type MCPError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`

	cause error
}

// Error implements the error interface
func (e *MCPError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any
func (e *MCPError) Unwrap() error {
	return e.cause
}

// NewMCPError creates a new MCP error
func NewMCPError(code ErrorCode, message string) *MCPError {
	return &MCPError{
		Code:    code,
		Message: message,
	}
}

// NewMCPErrorWithData creates a new MCP error with additional data
func NewMCPErrorWithData(code ErrorCode, message string, data interface{}) *MCPError {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// Wrap wraps an existing error with MCP error context
func Wrap(err error, code ErrorCode, message string) *MCPError {
	return &MCPError{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", message, err),
		cause:   err,
	}
}

// As returns the first MCPError in err's chain
func As(err error) (*MCPError, bool) {
	var mcpErr *MCPError
	if stderrors.As(err, &mcpErr) {
		return mcpErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an MCPError with the given code
func HasCode(err error, code ErrorCode) bool {
	mcpErr, ok := As(err)
	return ok && mcpErr.Code == code
}
