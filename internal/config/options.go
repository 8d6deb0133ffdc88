// Package config provides configuration types for the node RPC bridge.
package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultGracePeriod is how long Dispose waits at each termination step.
	DefaultGracePeriod = 3 * time.Second

	// DefaultStderrTailLines is the number of stderr lines kept for crash reports.
	DefaultStderrTailLines = 50
)

// Encoder serializes an outgoing payload into a single line of text.
// The result must not contain a line terminator.
type Encoder func(v any) ([]byte, error)

// DefaultEncoder encodes payloads as compact JSON.
func DefaultEncoder(v any) ([]byte, error) {
	return json.Marshal(v)
}

// NopLogger returns the logger used when none is configured. It reports every
// level as disabled, so per-line traffic logging costs nothing.
func NopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Options configures a bridge.
type Options struct {
	// Logger is the slog logger for lifecycle and traffic diagnostics.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Path is the executable to launch. It is run directly, never through a shell.
	Path string

	// Args are passed to the executable as-is.
	Args []string

	// Dir sets the working directory for the child process.
	// If empty, the child inherits the host's working directory.
	Dir string

	// Env provides additional environment variables for the child process.
	Env map[string]string

	// Transcript receives every exchanged line, prefixed INCOMING/OUTGOING/STDERR.
	// If nil, the transcript is kept in memory only.
	Transcript io.Writer

	// TranscriptCapacity bounds the in-memory transcript. Zero uses the default.
	TranscriptCapacity int

	// Encoder serializes [command, argument] payloads for Send.
	// If nil, DefaultEncoder is used.
	Encoder Encoder

	// KeepChildOnDispose leaves the child running after Dispose, relying on
	// process-group cleanup when the host exits.
	KeepChildOnDispose bool

	// GracePeriod is the time Dispose gives the child to exit after stdin is
	// closed, and again after SIGTERM, before escalating.
	GracePeriod time.Duration

	// MaxLineSize is the longest stdout/stderr line accepted, in bytes.
	// Zero uses the line channel default.
	MaxLineSize int

	// DispatchBuffer is the number of events buffered for the consumer.
	// Zero uses the dispatcher default.
	DispatchBuffer int

	// StderrCallback, if set, receives each stderr line on the stderr goroutine.
	StderrCallback func(line string)

	// StderrTailLines is the number of trailing stderr lines attached to crash errors.
	StderrTailLines int
}

// Normalize returns a copy of o with defaults applied.
func (o *Options) Normalize() *Options {
	out := &Options{}
	if o != nil {
		*out = *o
	}

	if out.Logger == nil {
		out.Logger = NopLogger()
	}

	if out.Encoder == nil {
		out.Encoder = DefaultEncoder
	}

	if out.GracePeriod <= 0 {
		out.GracePeriod = DefaultGracePeriod
	}

	if out.StderrTailLines <= 0 {
		out.StderrTailLines = DefaultStderrTailLines
	}

	return out
}
