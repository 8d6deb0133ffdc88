package errors

import (
	"errors"
	"fmt"
)

// BridgeError is the base interface for all bridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*LaunchError)(nil)
	_ BridgeError = (*ProcessError)(nil)
	_ BridgeError = (*EncodeError)(nil)
	_ BridgeError = (*LineTooLongError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrChannelNotReady indicates a send was attempted before the child's stdin was bound.
	ErrChannelNotReady = errors.New("channel not ready: bridge has not been started")

	// ErrDisposed indicates the bridge has been disposed and cannot send.
	ErrDisposed = errors.New("bridge disposed")

	// ErrAlreadyStarted indicates Start was called more than once.
	ErrAlreadyStarted = errors.New("bridge already started: bridges are single-use, create a new one with New()")

	// ErrChannelClosed indicates a write on a line channel that was closed.
	ErrChannelClosed = errors.New("line channel closed")

	// ErrEmbeddedNewline indicates outgoing text would span more than one line.
	ErrEmbeddedNewline = errors.New("outgoing text contains a line terminator")

	// ErrNoCommand indicates no executable path was configured.
	ErrNoCommand = errors.New("no command configured")
)

// LaunchError indicates the child process could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *LaunchError) IsBridgeError() bool { return true }

// ProcessError indicates the child process exited while the bridge was still active.
type ProcessError struct {
	Pid      int
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("child process %d terminated unexpectedly (exit %d): %v", e.Pid, e.ExitCode, e.Err)
	}

	return fmt.Sprintf("child process %d terminated unexpectedly (exit %d): %s", e.Pid, e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ProcessError) IsBridgeError() bool { return true }

// EncodeError indicates an outgoing command could not be serialized.
type EncodeError struct {
	Command string
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode command %q: %v", e.Command, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *EncodeError) IsBridgeError() bool { return true }

// LineTooLongError indicates an incoming line exceeded the configured limit.
// The line was skipped; the stream remains readable.
type LineTooLongError struct {
	Size  int
	Limit int
}

func (e *LineTooLongError) Error() string {
	return fmt.Sprintf("line of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// IsBridgeError implements BridgeError.
func (e *LineTooLongError) IsBridgeError() bool { return true }
