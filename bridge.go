package noderpc

import (
	"context"

	"github.com/wagiedev/noderpc-go/internal/bridge"
	"github.com/wagiedev/noderpc-go/internal/transcript"
)

// TranscriptEntry is one line of the transcript.
type TranscriptEntry = transcript.Entry

// Direction tags a transcript entry as incoming, outgoing or stderr.
type Direction = transcript.Direction

// Transcript directions.
const (
	Incoming = transcript.Incoming
	Outgoing = transcript.Outgoing
	Stderr   = transcript.Error
)

// Bridge supervises one child process and exchanges line-framed messages with it.
//
// Lifecycle: bridges are single-use. Start at most once; after Dispose, create
// a new bridge with New.
type Bridge interface {
	// ID returns the bridge's unique instance identifier.
	ID() string

	// Start launches the child. Launch failures are returned as *LaunchError.
	// LaunchComplete is the first event on success.
	Start(ctx context.Context) error

	// Send writes [command, argument] as one JSON line and flushes it.
	Send(command string, argument any) error

	// SendRaw writes text as one line and flushes it. text must not contain a line terminator.
	SendRaw(text string) error

	// Dispose marks the bridge as shut down and closes the child's stdin.
	// It is safe to call more than once.
	Dispose() error

	// Disposed reports whether Dispose has been called.
	Disposed() bool

	// Events returns the event stream, closed after the last event.
	Events() <-chan Event

	// Serve invokes h for each event on the calling goroutine until the
	// stream ends or ctx is done.
	Serve(ctx context.Context, h Handler) error

	// Wait blocks until the child has exited and returns how it ended.
	Wait() error

	// Done is closed once Wait would return without blocking.
	Done() <-chan struct{}

	// Pid returns the child's process ID, or 0 if none was started.
	Pid() int

	// Transcript returns the retained transcript entries in order.
	Transcript() []TranscriptEntry

	// TranscriptTail returns at most n of the most recent transcript entries.
	TranscriptTail(n int) []TranscriptEntry
}

// Compile-time verification that the internal bridge implements Bridge.
var _ Bridge = (*bridge.Bridge)(nil)

// New creates an unstarted bridge configured by opts.
func New(opts ...Option) Bridge {
	return bridge.New(applyOptions(opts))
}

// IsFramed reports whether line would be delivered as a Message event.
func IsFramed(line string) bool {
	return bridge.IsFramed(line)
}
