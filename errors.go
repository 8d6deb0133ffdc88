package noderpc

import "github.com/wagiedev/noderpc-go/internal/errors"

// Re-export error types from internal package

// LaunchError indicates the child process could not be started.
type LaunchError = errors.LaunchError

// ProcessError indicates the child process exited while the bridge was active.
type ProcessError = errors.ProcessError

// EncodeError indicates a command could not be serialized.
type EncodeError = errors.EncodeError

// BridgeError is the base interface for all bridge errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrChannelNotReady indicates a send before the bridge was started.
	ErrChannelNotReady = errors.ErrChannelNotReady

	// ErrDisposed indicates the bridge has been disposed.
	ErrDisposed = errors.ErrDisposed

	// ErrAlreadyStarted indicates Start was called more than once.
	ErrAlreadyStarted = errors.ErrAlreadyStarted

	// ErrEmbeddedNewline indicates outgoing text would span more than one line.
	ErrEmbeddedNewline = errors.ErrEmbeddedNewline

	// ErrNoCommand indicates no executable was configured.
	ErrNoCommand = errors.ErrNoCommand
)
