// Package monitor implements the xbee-868 telemetry daemon: a reactor
// driven process that decodes XBee 868 radio frames off a USB serial
// link, keeps the latest reading per host in memory, and answers queries
// for it over a UNIX domain socket.
package monitor

import (
	"errors"
	"fmt"
)

// Error represents a structured monitor error with operation context.
type Error struct {
	Op    string // operation that failed, e.g. "metrics", "connect_sensors"
	Code  ErrorCode
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("monitor: %s (op=%s)", msg, e.Op)
	}
	return fmt.Sprintf("monitor: %s", msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// PublicMessage returns the text safe to return to an IPC client: the
// exported error message for this package's structured errors,
// deliberately never the inner cause, which may hold filesystem paths
// or other internal detail.
func (e *Error) PublicMessage() string {
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Code)
}

// Is lets errors.Is match on Code alone, so callers can write
// errors.Is(err, monitor.ErrUnknownHost) without caring about Op or Msg.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode categorizes a monitor error.
type ErrorCode string

const (
	CodeUnknownHost      ErrorCode = "unknown host"
	CodeMonitorNotStarted ErrorCode = "monitor not started"
	CodeMonitorRunning   ErrorCode = "monitor already started"
	CodeMethodNotFound   ErrorCode = "method not found"
	CodeInvalidArguments ErrorCode = "invalid arguments"
	CodeInvalidFrame     ErrorCode = "invalid frame"
	CodeInternal         ErrorCode = "internal error"
)

// Sentinel errors for errors.Is comparisons against a bare code.
var (
	ErrUnknownHost       = &Error{Code: CodeUnknownHost}
	ErrMonitorNotStarted = &Error{Code: CodeMonitorNotStarted}
	ErrMonitorRunning    = &Error{Code: CodeMonitorRunning}
	ErrMethodNotFound    = &Error{Code: CodeMethodNotFound}
	ErrInvalidArguments  = &Error{Code: CodeInvalidArguments}
	ErrInvalidFrame      = &Error{Code: CodeInvalidFrame}
)

// NewError builds a structured error for the given operation.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError attaches operation context to an existing error without
// discarding it, so errors.Unwrap still reaches the original cause.
func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err carries the given ErrorCode anywhere in its
// unwrap chain.
func IsCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}
