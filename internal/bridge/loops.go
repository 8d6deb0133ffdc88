package bridge

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/noderpc-go/internal/dispatch"
	"github.com/wagiedev/noderpc-go/internal/errors"
	"github.com/wagiedev/noderpc-go/internal/linechan"
	"github.com/wagiedev/noderpc-go/internal/subprocess"
	"github.com/wagiedev/noderpc-go/internal/transcript"
)

// IsFramed reports whether line is a protocol message: its first byte is '['.
// Empty lines are not.
func IsFramed(line string) bool {
	return len(line) > 0 && line[0] == '['
}

// readStdout records every stdout line, forwards framed ones as Message events
// and, when the stream ends while the bridge is active, posts one Crashed.
// It is the last producer, so it closes the event stream on return.
func (b *Bridge) readStdout(r *linechan.Reader) {
	defer b.dispatcher.Close()
	defer b.log.Debug("Stdout reader stopped")

	messageCount := 0

	for {
		line, err := r.ReadLine()
		if tooLong, ok := stderrors.AsType[*errors.LineTooLongError](err); ok {
			b.log.Error("Skipped overlong stdout line", "size", tooLong.Size, "limit", tooLong.Limit)
			b.transcript.Append(transcript.Incoming, skippedLine(tooLong))

			continue
		}

		if err != nil {
			if !stderrors.Is(err, io.EOF) {
				b.log.Error("Failed to read child stdout, treating as end of stream", "error", err)
			}

			break
		}

		b.transcript.Append(transcript.Incoming, line)

		if !IsFramed(line) {
			b.log.Debug("Discarded non-protocol line", "line", line)

			continue
		}

		messageCount++
		b.log.Debug("Received message from child", "message_count", messageCount)

		b.dispatcher.Post(dispatch.Message{Line: line})
	}

	b.mu.Lock()
	b.crashed = !b.disposed.Load()
	crashed := b.crashed
	b.mu.Unlock()

	if !crashed {
		b.log.Info("Child stdout closed after dispose")

		return
	}

	b.log.Warn("Child stdout closed while bridge was active", "message_count", messageCount)
	b.dispatcher.Post(dispatch.Crashed{})
}

// readStderr records every stderr line. It never produces events.
func (b *Bridge) readStderr(r *linechan.Reader) {
	defer b.log.Debug("Stderr reader stopped")

	for {
		line, err := r.ReadLine()
		if tooLong, ok := stderrors.AsType[*errors.LineTooLongError](err); ok {
			b.log.Warn("Skipped overlong stderr line", "size", tooLong.Size, "limit", tooLong.Limit)
			b.transcript.Append(transcript.Error, skippedLine(tooLong))

			continue
		}

		if err != nil {
			if !stderrors.Is(err, io.EOF) {
				b.log.Warn("Failed to read child stderr", "error", err)
				discard(b.proc.Stderr)
			}

			return
		}

		b.transcript.Append(transcript.Error, line)
		b.stderrTail.Add(line)

		if b.options.StderrCallback != nil {
			b.options.StderrCallback(line)
		}
	}
}

// skippedLine is the transcript text recorded in place of an overlong line.
// It never starts with '[', so it cannot be mistaken for a message.
func skippedLine(err *errors.LineTooLongError) string {
	return fmt.Sprintf("<skipped line of %d bytes, limit %d>", err.Size, err.Limit)
}

// waitForExit reports whether proc exited within the grace period.
func (b *Bridge) waitForExit(proc *subprocess.Process) bool {
	timer := time.NewTimer(b.options.GracePeriod)
	defer timer.Stop()

	select {
	case <-proc.Exited():
		return true
	case <-timer.C:
		return false
	}
}

// lineTail keeps the last few lines written to it.
type lineTail struct {
	mu    sync.Mutex
	lines []string
	limit int
}

func newLineTail(limit int) *lineTail {
	return &lineTail{limit: limit}
}

func (t *lineTail) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.lines) == t.limit {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:len(t.lines)-1]
	}

	t.lines = append(t.lines, line)
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return strings.Join(t.lines, "\n")
}
