package cli

import (
	"errors"
	"fmt"

	"xtd/internal/infer"
	"xtd/internal/schema"
	"xtd/internal/xmltree"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitOptions      = 1  // Bad flags or configuration
	ExitInput        = 2  // Input document, validation document or source database cannot be opened
	ExitOutput       = 3  // Output file or target database cannot be opened
	ExitMalformed    = 4  // A document is not well-formed XML
	ExitCollision    = 90 // Naming collision or relation conflict
	ExitIncompatible = 91 // Validated document does not fit the schema
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitOptions if the error is not an ExitError,
// which covers flag parsing errors reported by cobra.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitOptions
}

// classify wraps a pipeline failure with the exit code it maps to.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		exitErr      *ExitError
		ioErr        *infer.IOError
		parseErr     *xmltree.ParseError
		collision    *schema.NamingCollisionError
		conflict     *schema.RelationConflictError
		incompatible *schema.SchemaValidationError
	)
	switch {
	case errors.As(err, &exitErr):
		return err
	case errors.As(err, &ioErr):
		return WrapExitError(ExitInput, "cannot open file", err)
	case errors.As(err, &parseErr):
		return WrapExitError(ExitMalformed, "document is not well-formed", err)
	case errors.As(err, &collision):
		return WrapExitError(ExitCollision, "naming collision", err)
	case errors.As(err, &conflict):
		return WrapExitError(ExitCollision, "relation conflict", err)
	case errors.As(err, &incompatible):
		return WrapExitError(ExitIncompatible, "validation failed", err)
	}
	return err
}
