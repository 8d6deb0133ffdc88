package bridge

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/noderpc-go/internal/config"
	"github.com/wagiedev/noderpc-go/internal/dispatch"
	"github.com/wagiedev/noderpc-go/internal/errors"
	"github.com/wagiedev/noderpc-go/internal/linechan"
	"github.com/wagiedev/noderpc-go/internal/subprocess"
	"github.com/wagiedev/noderpc-go/internal/transcript"
)

// Bridge supervises one child process and exchanges newline-framed messages with it.
type Bridge struct {
	id         string
	log        *slog.Logger
	options    *config.Options
	transcript *transcript.Logger
	dispatcher *dispatch.Dispatcher
	stderrTail *lineTail

	// Lifecycle management
	mu       sync.Mutex // guards started, disposed and crashed transitions
	started  bool
	disposed atomic.Bool // one-way; written under mu, read lock-free
	crashed  bool

	proc  *subprocess.Process
	stdin atomic.Pointer[linechan.Writer]

	readers errgroup.Group
	done    chan struct{}
	waitErr error
}

// New creates an unstarted bridge.
func New(options *config.Options) *Bridge {
	options = options.Normalize()
	id := ulid.Make().String()
	log := options.Logger.With("component", "bridge", "bridge_id", id)

	return &Bridge{
		id:         id,
		log:        log,
		options:    options,
		transcript: transcript.New(log, options.Transcript, options.TranscriptCapacity),
		dispatcher: dispatch.New(log, options.DispatchBuffer),
		stderrTail: newLineTail(options.StderrTailLines),
		done:       make(chan struct{}),
	}
}

// ID returns the bridge's unique instance identifier.
func (b *Bridge) ID() string {
	return b.id
}

// Start launches the child process and begins reading its output.
//
// The process is spawned before Start returns, so a failure to launch is
// returned here as a *errors.LaunchError; in that case the event stream is
// closed without any event. On success LaunchComplete is posted before either
// reader starts. Start may be called only once.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return errors.ErrAlreadyStarted
	}

	if b.disposed.Load() {
		return errors.ErrDisposed
	}

	b.started = true

	b.log.Info("Starting child process", "path", b.options.Path)

	if err := ctx.Err(); err != nil {
		b.failLaunch(&errors.LaunchError{Path: b.options.Path, Err: err})

		return b.waitErr
	}

	proc, err := subprocess.Spawn(&subprocess.Config{
		Path:   b.options.Path,
		Args:   b.options.Args,
		Dir:    b.options.Dir,
		Env:    b.options.Env,
		Logger: b.log,
	})
	if err != nil {
		b.failLaunch(err)

		return err
	}

	b.proc = proc

	channel := linechan.New(proc.Stdin, proc.Stdout, proc.Stderr, b.options.MaxLineSize)
	b.stdin.Store(channel.Stdin)

	// The buffer is empty and holds at least one event, so this never blocks.
	b.dispatcher.Post(dispatch.LaunchComplete{})

	b.readers.Go(func() error {
		b.readStdout(channel.Stdout)

		return nil
	})

	b.readers.Go(func() error {
		b.readStderr(channel.Stderr)

		return nil
	})

	go b.reap()

	b.log.Info("Bridge started", "pid", proc.Pid())

	return nil
}

// failLaunch records a launch failure and ends the event stream. Caller must hold b.mu.
func (b *Bridge) failLaunch(err error) {
	b.log.Error("Failed to launch child process", "error", err)

	b.waitErr = err
	b.dispatcher.Close()
	close(b.done)
}

// Send encodes [command, argument] and writes it as one line to the child.
//
// Returns ErrChannelNotReady before Start, ErrDisposed after Dispose and
// *errors.EncodeError if the payload cannot be encoded.
func (b *Bridge) Send(command string, argument any) error {
	if _, err := b.writer(); err != nil {
		return err
	}

	data, err := b.options.Encoder([]any{command, argument})
	if err != nil {
		b.log.Error("Failed to encode command", "command", command, "error", err)

		return &errors.EncodeError{Command: command, Err: err}
	}

	return b.SendRaw(string(data))
}

// SendRaw records text in the transcript and writes it, newline-terminated, to
// the child's stdin. The write is flushed before SendRaw returns.
//
// The line is recorded before the write so it precedes any reply in the
// transcript. If the write then fails, an undelivered marker follows it.
func (b *Bridge) SendRaw(text string) error {
	w, err := b.writer()
	if err != nil {
		return err
	}

	if strings.ContainsAny(text, "\r\n") {
		return errors.ErrEmbeddedNewline
	}

	b.transcript.Append(transcript.Outgoing, text)

	if err := w.WriteLine(text); err != nil {
		if stderrors.Is(err, errors.ErrChannelClosed) {
			b.transcript.Append(transcript.Outgoing, undeliveredLine(errors.ErrDisposed))

			return errors.ErrDisposed
		}

		b.log.Error("Failed to write to child stdin", "error", err)
		b.transcript.Append(transcript.Outgoing, undeliveredLine(err))

		return fmt.Errorf("write to stdin: %w", err)
	}

	b.log.Debug("Sent line to child", "bytes", len(text))

	return nil
}

// undeliveredLine is the transcript text recorded after a line whose write failed.
func undeliveredLine(err error) string {
	return fmt.Sprintf("<previous line not delivered: %v>", err)
}

// writer returns the bound stdin writer or the reason none is usable.
func (b *Bridge) writer() (*linechan.Writer, error) {
	if b.disposed.Load() {
		return nil, errors.ErrDisposed
	}

	w := b.stdin.Load()
	if w == nil {
		return nil, errors.ErrChannelNotReady
	}

	return w, nil
}

// Dispose marks the bridge as shut down and closes the child's stdin.
//
// After Dispose returns, the end of the child's stdout is treated as an
// expected shutdown and no Crashed event follows. Unless KeepChildOnDispose is
// set, a background step gives the child GracePeriod to exit on its own, then
// signals its process group and finally kills it. Dispose does not wait for
// that; use Wait. Calling Dispose more than once is a no-op.
func (b *Bridge) Dispose() error {
	b.mu.Lock()

	if b.disposed.Load() {
		b.mu.Unlock()

		return nil
	}

	b.disposed.Store(true)
	proc := b.proc

	if !b.started {
		// No reader will ever close the stream.
		b.dispatcher.Close()
	}

	b.mu.Unlock()

	b.log.Info("Disposing bridge")

	var closeErr error
	if w := b.stdin.Load(); w != nil {
		if err := w.Close(); err != nil {
			closeErr = fmt.Errorf("close stdin: %w", err)
		}
	}

	if proc != nil {
		go b.shutdown(proc)
	}

	return closeErr
}

// Disposed reports whether Dispose has been called.
func (b *Bridge) Disposed() bool {
	return b.disposed.Load()
}

// shutdown waits for the child to exit after Dispose, escalating as configured,
// then releases any reader still blocked on an undrained event stream.
func (b *Bridge) shutdown(proc *subprocess.Process) {
	defer b.dispatcher.Abandon()

	if b.waitForExit(proc) {
		return
	}

	if b.options.KeepChildOnDispose {
		b.log.Info("Child still running after dispose; leaving it to process-group cleanup")

		return
	}

	if err := proc.Terminate(b.options.GracePeriod); err != nil {
		b.log.Warn("Failed to terminate child process", "error", err)
	}
}

// Events returns the event stream. It is closed after the last event.
func (b *Bridge) Events() <-chan dispatch.Event {
	return b.dispatcher.Events()
}

// Serve delivers events to h on the calling goroutine until the stream ends or ctx is done.
func (b *Bridge) Serve(ctx context.Context, h dispatch.Handler) error {
	return b.dispatcher.Serve(ctx, h)
}

// Pid returns the child's process ID, or 0 if it is not running.
func (b *Bridge) Pid() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.proc == nil {
		return 0
	}

	return b.proc.Pid()
}

// Transcript returns the retained transcript entries in order.
func (b *Bridge) Transcript() []transcript.Entry {
	return b.transcript.Entries()
}

// TranscriptTail returns at most n of the most recent transcript entries.
func (b *Bridge) TranscriptTail(n int) []transcript.Entry {
	return b.transcript.Tail(n)
}

// Done is closed once the child has been reaped or the launch failed.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the child has exited and both readers have finished.
//
// It returns nil if the child exited after Dispose, a *errors.ProcessError if
// it exited while the bridge was active, and the launch error if Start failed.
// Before Start it returns ErrChannelNotReady.
func (b *Bridge) Wait() error {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()

	if !started {
		return errors.ErrChannelNotReady
	}

	<-b.done

	return b.waitErr
}

// reap waits for both readers, then for the process, and records the outcome.
func (b *Bridge) reap() {
	_ = b.readers.Wait()

	err := b.proc.Wait()

	b.mu.Lock()
	crashed := b.crashed
	b.mu.Unlock()

	if crashed {
		b.waitErr = &errors.ProcessError{
			Pid:      b.proc.Pid(),
			ExitCode: b.proc.ExitCode(),
			Stderr:   b.stderrTail.String(),
			Err:      err,
		}
	} else if err != nil {
		b.log.Debug("Child exited after dispose", "error", err)
	}

	close(b.done)
}

// discard drains r so the child never blocks writing to a pipe nobody reads.
func discard(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
