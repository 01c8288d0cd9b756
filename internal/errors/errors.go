package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidArgument indicates an empty or all-whitespace type or scope name
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// SourceUnavailable indicates a module source could not be opened or loaded
	SourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	// SnapshotInvalid indicates a snapshot or manifest file is malformed
	SnapshotInvalid ErrorCode = "SNAPSHOT_INVALID"
	// ConfigInvalid indicates invalid configuration
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// TypeIdxError represents an error with code, message, and suggestions
type TypeIdxError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewError creates a new TypeIdxError
func NewError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *TypeIdxError {
	return &TypeIdxError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// Invalid returns an InvalidArgument error for the named parameter.
func Invalid(param string, format string, args ...interface{}) *TypeIdxError {
	return NewError(InvalidArgument, fmt.Sprintf(format, args...), nil, nil).WithDetails(map[string]string{
		"parameter": param,
	})
}

// Error implements the error interface
func (e *TypeIdxError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TypeIdxError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *TypeIdxError) WithDetails(details interface{}) *TypeIdxError {
	e.Details = details
	return e
}

// IsCode reports whether err, or any error it wraps, is a TypeIdxError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var te *TypeIdxError
	if stderrors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SourceUnavailable: {
		{
			Type:        RunCommand,
			Command:     "typeidx config init",
			Safe:        true,
			Description: "Write a default configuration and point source.path at an inventory",
		},
	},
	SnapshotInvalid: {
		{
			Type:        RunCommand,
			Command:     "typeidx snapshot --out .typeidx/inventory.db",
			Safe:        true,
			Description: "Regenerate the inventory snapshot",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "typeidx config init --force",
			Safe:        false,
			Description: "Overwrite the configuration with defaults",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
