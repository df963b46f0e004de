// Package errors defines the stable error code system for muster.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable error code string.
type Code string

// Error codes. Stable public contract: scripts match on these strings.
const (
	EUsage    Code = "E_USAGE"
	EInternal Code = "E_INTERNAL"

	// Config error codes
	EInvalidConfig Code = "E_INVALID_CONFIG"
	EConfigExists  Code = "E_CONFIG_EXISTS"

	// Registry error codes
	EInvalidID        Code = "E_INVALID_ID"         // agent id fails validation rules
	EInvalidTask      Code = "E_INVALID_TASK"       // task description empty or too long
	EDuplicateID      Code = "E_DUPLICATE_ID"       // non-deleted record with the same id exists
	EAgentNotFound    Code = "E_AGENT_NOT_FOUND"    // no record matches the given id or prefix
	EAgentIDAmbiguous Code = "E_AGENT_ID_AMBIGUOUS" // id prefix matches >1 record
	EAgentNotActive   Code = "E_AGENT_NOT_ACTIVE"   // record's lifecycle status forbids the operation
	ELockTimeout      Code = "E_LOCK_TIMEOUT"       // another muster process held the store lock too long
	EStoreIO          Code = "E_STORE_IO"           // store file could not be read or written
	EPersistFailed    Code = "E_PERSIST_FAILED"

	// Supervisor error codes
	ETmuxNotInstalled   Code = "E_TMUX_NOT_INSTALLED"
	ETmuxFailed         Code = "E_TMUX_FAILED"
	ETmuxSessionMissing Code = "E_TMUX_SESSION_MISSING" // --tail requested but the session is gone
)

// MusterError is the standard error type for muster errors.
type MusterError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *MusterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *MusterError) Unwrap() error {
	return e.Cause
}

// ExitCodeError wraps an error with an explicit process exit code.
type ExitCodeError struct {
	Err  error
	Code int
}

func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

func (e *ExitCodeError) ExitCode() int {
	return e.Code
}

// WithExitCode wraps err with a specific process exit code.
func WithExitCode(err error, code int) error {
	return &ExitCodeError{Err: err, Code: code}
}

// New creates a new MusterError with the given code and message.
func New(code Code, msg string) error {
	return &MusterError{Code: code, Msg: msg}
}

// NewWithDetails creates a new MusterError with code, message, and details.
// Details map is defensively copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &MusterError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new MusterError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &MusterError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new MusterError wrapping an underlying error with details.
// Details map is defensively copied (nil if empty).
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &MusterError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a MusterError.
func GetCode(err error) Code {
	var me *MusterError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// AsMusterError returns (*MusterError, true) if err is or wraps a MusterError.
func AsMusterError(err error) (*MusterError, bool) {
	var me *MusterError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// copyDetails returns a defensive copy of the details map, or nil if empty/nil.
func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns the appropriate exit code for an error.
//
//	nil                       0
//	E_USAGE                   2
//	E_AGENT_NOT_FOUND         3
//	E_LOCK_TIMEOUT            4
//	tmux codes                5
//	anything else             1
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if ec, ok := err.(interface{ ExitCode() int }); ok {
		return ec.ExitCode()
	}
	switch GetCode(err) {
	case EUsage:
		return 2
	case EAgentNotFound:
		return 3
	case ELockTimeout:
		return 4
	case ETmuxNotInstalled, ETmuxFailed, ETmuxSessionMissing:
		return 5
	}
	return 1
}
