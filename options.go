package noderpc

import (
	"io"
	"log/slog"
	"time"

	"github.com/wagiedev/noderpc-go/internal/config"
)

// Options configures a bridge. Most callers use the With* functions instead.
type Options = config.Options

// Encoder serializes an outgoing [command, argument] payload into one line.
type Encoder = config.Encoder

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithCommand sets the executable and its arguments. No shell is involved.
func WithCommand(path string, args ...string) Option {
	return func(o *Options) {
		o.Path = path
		o.Args = args
	}
}

// WithDir sets the working directory of the child process.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithEnv adds environment variables for the child process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithLogger sets the logger for lifecycle and traffic diagnostics.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTranscript sets the sink that receives every exchanged line.
// If the sink has a Flush or Sync method it is called after each line.
func WithTranscript(w io.Writer) Option {
	return func(o *Options) {
		o.Transcript = w
	}
}

// WithTranscriptCapacity bounds the number of transcript entries kept in memory.
func WithTranscriptCapacity(n int) Option {
	return func(o *Options) {
		o.TranscriptCapacity = n
	}
}

// WithEncoder replaces the JSON encoder used by Send.
func WithEncoder(enc Encoder) Option {
	return func(o *Options) {
		o.Encoder = enc
	}
}

// WithKeepChildOnDispose leaves the child running after Dispose instead of
// terminating it, relying on process-group cleanup when the host exits.
func WithKeepChildOnDispose() Option {
	return func(o *Options) {
		o.KeepChildOnDispose = true
	}
}

// WithGracePeriod sets how long Dispose waits for the child at each
// termination step.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		o.GracePeriod = d
	}
}

// WithMaxLineSize sets the longest stdout or stderr line accepted, in bytes.
// A longer line is skipped and recorded in the transcript as a marker.
func WithMaxLineSize(size int) Option {
	return func(o *Options) {
		o.MaxLineSize = size
	}
}

// WithDispatchBuffer sets how many events may wait for the consumer before
// the stdout reader blocks.
func WithDispatchBuffer(size int) Option {
	return func(o *Options) {
		o.DispatchBuffer = size
	}
}

// WithStderrCallback sets a function called with each stderr line.
// It runs on the stderr reader goroutine.
func WithStderrCallback(fn func(line string)) Option {
	return func(o *Options) {
		o.StderrCallback = fn
	}
}

// WithStderrTailLines sets how many trailing stderr lines are attached to a ProcessError.
func WithStderrTailLines(n int) Option {
	return func(o *Options) {
		o.StderrTailLines = n
	}
}

// WithConfig copies every field of cfg, for callers that build Options directly.
func WithConfig(cfg *Options) Option {
	return func(o *Options) {
		if cfg != nil {
			*o = *cfg
		}
	}
}
