package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/primgen/internal/generr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Generation failed (a generation delegate returned an error, write failure)
	ExitCommandError = 2 // Command error (invalid config, unreadable store, etc.)
	ExitFatal        = 3 // Broken generator invariant (status encoding, vertex source, stack kind)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
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

// wrapGenerationError maps a generation error to its exit code.
// Fatal generator errors get ExitFatal; everything else ExitFailure.
func wrapGenerationError(message string, err error) *ExitError {
	if generr.IsFatal(err) {
		return WrapExitError(ExitFatal, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string            `json:"code"`              // generator error code, or "EXIT_<n>"
	Message string            `json:"message"`           // human-readable message
	Details map[string]string `json:"details,omitempty"` // generator error details
}

// Success outputs a successful result in the configured format.
// Text output prints data with fmt, so results implement fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Failure outputs err in the configured format.
func (f *OutputFormatter) Failure(err error) error {
	ce := newCLIError(err)
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "error", Error: ce})
	}
	_, werr := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", ce.Code, ce.Message)
	return werr
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// newCLIError takes the code and details of the innermost generator error,
// if any, and the full message chain.
func newCLIError(err error) *CLIError {
	ce := &CLIError{
		Code:    fmt.Sprintf("EXIT_%d", GetExitCode(err)),
		Message: err.Error(),
	}
	var ge *generr.Error
	if errors.As(err, &ge) {
		ce.Code = string(ge.Code)
		ce.Details = ge.Details
	}
	return ce
}
