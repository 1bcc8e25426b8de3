// Package gdbstub implements a GDB Remote Serial Protocol debug server
// fronting a single target process.
package gdbstub

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes a failure the way the daemon's callers need to
// react to it: retry the session, reply to GDB with an error packet, or
// abort the process.
type ErrorCode string

const (
	// ErrCodeTransport covers connection/socket-level failures: accept,
	// read, write, or close errors on the underlying Transport.
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeTarget covers failures from the DebugTarget/ProcessManager
	// capability: attach, detach, memory access, register access.
	ErrCodeTarget ErrorCode = "target"
	// ErrCodeProtocol covers malformed or unsupported RSP packets: bad
	// checksum, unknown command, truncated payload.
	ErrCodeProtocol ErrorCode = "protocol"
	// ErrCodeResource covers exhausted tables: breakpoint slots, watchpoint
	// slots, module table, thread table.
	ErrCodeResource ErrorCode = "resource"
	// ErrCodeValidation covers caller-supplied values rejected before any
	// target call is attempted: misaligned watchpoint address, bad length.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeFatal covers failures that should tear the session down
	// rather than produce an error reply.
	ErrCodeFatal ErrorCode = "fatal"
)

// Error is the structured error type returned by every exported operation.
type Error struct {
	Op    string    // operation that failed, e.g. "vAttach", "ReadMemory"
	Code  ErrorCode // high-level category
	Msg   string    // human-readable detail
	Inner error     // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("gdbstub: %s: %s: %s", e.Op, e.Code, e.Msg)
	}
	return fmt.Sprintf("gdbstub: %s: %s", e.Code, e.Msg)
}

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by Code, independent of Op/Msg/Inner.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError builds an Error with no wrapped cause.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError wraps inner with op, preserving its Code if inner is itself a
// *Error, otherwise classifying it as code.
func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ie, ok := inner.(*Error); ok {
		code = ie.Code
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Sentinel errors for conditions callers commonly branch on directly.
var (
	ErrSessionClosed       = NewError("Session", ErrCodeTransport, "session closed")
	ErrNotAttached         = NewError("Session", ErrCodeTarget, "no process attached")
	ErrBreakpointTableFull = NewError("SetBreakpoint", ErrCodeResource, "breakpoint table full")
	ErrWatchpointTableFull = NewError("SetWatchpoint", ErrCodeResource, "watchpoint table full")
	ErrMisalignedWatch     = NewError("SetWatchpoint", ErrCodeValidation, "watchpoint address/length not a power-of-two-aligned range")
	ErrUnknownCommand      = NewError("Dispatch", ErrCodeProtocol, "unsupported command")
	ErrBadChecksum         = NewError("Dispatch", ErrCodeProtocol, "packet checksum mismatch")
)
