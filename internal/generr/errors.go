// Package generr defines the error taxonomy of the primary generator.
//
// Every error carries a Code. The code determines severity:
//
//   - Fatal codes describe broken invariants (status encoding, vertex source,
//     stack kind). They are never handled inside the generator; the run must
//     stop because continuing would corrupt the produced event tree.
//   - Recoverable codes describe conditions the caller can route around,
//     such as a background store that could not be opened.
package generr

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Code categorizes generator errors.
type Code string

const (
	// CodeBadStatusEncoding: a primary particle's status lacks the encoded marker.
	CodeBadStatusEncoding Code = "BAD_STATUS_ENCODING"

	// CodeMissingMeanVertex: calibrated vertex mode without a mean-vertex object.
	CodeMissingMeanVertex Code = "MISSING_MEAN_VERTEX"

	// CodeMissingExternalVertex: external vertex mode but no vertex was set for the event.
	CodeMissingExternalVertex Code = "MISSING_EXTERNAL_VERTEX"

	// CodeUnsupportedStack: particles submitted to a stack that does not accept primaries.
	CodeUnsupportedStack Code = "UNSUPPORTED_STACK"

	// CodeInvalidConfig: configuration rejected at setup time.
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// CodeEmbedAlreadyOpen: a background store is already open.
	CodeEmbedAlreadyOpen Code = "EMBED_ALREADY_OPEN"

	// CodeEmbedOpenFailed: the background store could not be opened.
	CodeEmbedOpenFailed Code = "EMBED_OPEN_FAILED"

	// CodeEmbedMissingTable: the store has no event-header table.
	CodeEmbedMissingTable Code = "EMBED_MISSING_TABLE"

	// CodeEmbedEmpty: the event-header table reports no entries.
	CodeEmbedEmpty Code = "EMBED_EMPTY"

	// CodeEmbedRead: reading the background header at the cursor failed.
	CodeEmbedRead Code = "EMBED_READ"
)

// codes maps every known code to whether it is fatal.
var codes = map[Code]bool{
	CodeBadStatusEncoding:     true,
	CodeMissingMeanVertex:     true,
	CodeMissingExternalVertex: true,
	CodeUnsupportedStack:      true,
	CodeInvalidConfig:         true,
	CodeEmbedAlreadyOpen:      false,
	CodeEmbedOpenFailed:       false,
	CodeEmbedMissingTable:     false,
	CodeEmbedEmpty:            false,
	CodeEmbedRead:             false,
}

// Fatal reports whether errors with this code must terminate the run.
func (c Code) Fatal() bool {
	return codes[c]
}

// Known reports whether c is one of the defined codes.
func (c Code) Known() bool {
	_, ok := codes[c]
	return ok
}

// Error is a generator error with a code and diagnostic details.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		keys := slices.Sorted(maps.Keys(e.Details))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + e.Details[k]
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must terminate the run.
func (e *Error) Fatal() bool {
	return e.Code.Fatal()
}

// IsFatal reports whether err wraps a fatal generator error.
func IsFatal(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Fatal()
	}
	return false
}

// HasCode reports whether err wraps a generator error with the given code.
func HasCode(err error, code Code) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// BadStatusEncoding creates the error for a primary particle whose status is not encoded.
func BadStatusEncoding(status int32, pdg int) *Error {
	return &Error{
		Code:    CodeBadStatusEncoding,
		Message: "generator status of particle is not encoded properly",
		Details: map[string]string{
			"status": fmt.Sprintf("%d", status),
			"pdg":    fmt.Sprintf("%d", pdg),
		},
	}
}

// MissingMeanVertex creates the error for calibrated mode without an injected object.
func MissingMeanVertex() *Error {
	return &Error{
		Code:    CodeMissingMeanVertex,
		Message: "calibrated vertex mode requires a mean-vertex object",
	}
}

// MissingExternalVertex creates the error for external mode without a pending vertex.
func MissingExternalVertex() *Error {
	return &Error{
		Code:    CodeMissingExternalVertex,
		Message: "external vertex mode but no vertex was set for the next event",
	}
}

// UnsupportedStack creates the error for submissions to a stack without a primary sink.
func UnsupportedStack(kind string) *Error {
	return &Error{
		Code:    CodeUnsupportedStack,
		Message: "stack does not accept primary tracks",
		Details: map[string]string{"stack": kind},
	}
}

// InvalidConfig creates a configuration error.
func InvalidConfig(message string, err error) *Error {
	return &Error{Code: CodeInvalidConfig, Message: message, Err: err}
}

// EmbedAlreadyOpen creates the error for a second open while a store is active.
func EmbedAlreadyOpen(current string) *Error {
	return &Error{
		Code:    CodeEmbedAlreadyOpen,
		Message: "another embedding store is currently open",
		Details: map[string]string{"current": current},
	}
}

// EmbedOpenFailed creates the error for a store that cannot be opened.
func EmbedOpenFailed(path string, err error) *Error {
	return &Error{
		Code:    CodeEmbedOpenFailed,
		Message: "cannot open store for embedding",
		Details: map[string]string{"path": path},
		Err:     err,
	}
}

// EmbedMissingTable creates the error for a store without the event-header table.
func EmbedMissingTable(path, table string) *Error {
	return &Error{
		Code:    CodeEmbedMissingTable,
		Message: fmt.Sprintf("cannot find %q table for embedding", table),
		Details: map[string]string{"path": path},
	}
}

// EmbedEmpty creates the error for a store whose table reports no entries.
func EmbedEmpty(path string, entries int64) *Error {
	return &Error{
		Code:    CodeEmbedEmpty,
		Message: "invalid number of entries found in store for embedding",
		Details: map[string]string{
			"path":    path,
			"entries": fmt.Sprintf("%d", entries),
		},
	}
}

// EmbedRead creates the error for a failed background-header read.
func EmbedRead(path string, index int64, err error) *Error {
	return &Error{
		Code:    CodeEmbedRead,
		Message: "cannot read background event",
		Details: map[string]string{
			"path":  path,
			"index": fmt.Sprintf("%d", index),
		},
		Err: err,
	}
}
