package linechan

import (
	"bufio"
	stderrors "errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wagiedev/noderpc-go/internal/errors"
)

const (
	// DefaultMaxLineSize is the largest line a Reader accepts by default.
	DefaultMaxLineSize = 1024 * 1024 // 1MB

	// initialBufferSize is the read buffer size; longer lines are assembled across reads.
	initialBufferSize = 64 * 1024

	byteOrderMark = "\uFEFF"
)

// Channel wraps the three byte streams bound to a child process.
// It owns no process lifecycle.
type Channel struct {
	Stdin  *Writer
	Stdout *Reader
	Stderr *Reader
}

// New binds a Channel to the given streams.
func New(stdin io.WriteCloser, stdout, stderr io.Reader, maxLineSize int) *Channel {
	return &Channel{
		Stdin:  NewWriter(stdin),
		Stdout: NewReader(stdout, maxLineSize),
		Stderr: NewReader(stderr, maxLineSize),
	}
}

// Reader reads newline-terminated UTF-8 lines from a stream.
// A Reader is not safe for concurrent use; each stream has exactly one reading goroutine.
type Reader struct {
	r       *bufio.Reader
	limit   int
	line    []byte
	started bool
	eof     bool
}

// NewReader creates a Reader accepting lines of up to maxLineSize bytes.
// Values below one use DefaultMaxLineSize.
func NewReader(r io.Reader, maxLineSize int) *Reader {
	if maxLineSize < 1 {
		maxLineSize = DefaultMaxLineSize
	}

	return &Reader{
		r:     bufio.NewReaderSize(r, min(initialBufferSize, maxLineSize)),
		limit: maxLineSize,
	}
}

// ReadLine blocks until the next line is available.
//
// A byte order mark at the start of the stream is dropped, a trailing \r is
// removed and invalid UTF-8 sequences are replaced with U+FFFD. A final line
// without a terminator is returned before io.EOF.
//
// A line longer than the limit is consumed and skipped: ReadLine returns a
// *errors.LineTooLongError and the next call continues with the following
// line. Any other read error is returned as is.
func (r *Reader) ReadLine() (string, error) {
	if r.eof {
		return "", io.EOF
	}

	r.line = r.line[:0]
	size := 0
	overflow := false

	// tail holds the last two bytes read, which is all the terminator check needs.
	var tail [2]byte

	for {
		chunk, err := r.r.ReadSlice('\n')
		size += len(chunk)

		switch n := len(chunk); {
		case n >= 2:
			tail[0], tail[1] = chunk[n-2], chunk[n-1]
		case n == 1:
			tail[0], tail[1] = tail[1], chunk[0]
		}

		// A partial chunk may end in the \r of a \r\n pair, hence the extra byte.
		if !overflow && len(r.line)+len(chunk) > r.limit+2 {
			overflow = true
			r.line = r.line[:0]
		}

		if !overflow {
			r.line = append(r.line, chunk...)
		}

		if stderrors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if err != nil && !stderrors.Is(err, io.EOF) {
			return "", err
		}

		if err != nil {
			r.eof = true

			if size == 0 {
				return "", io.EOF
			}
		}

		break
	}

	first := !r.started
	r.started = true

	content := size - terminatorLength(tail, size)
	if overflow || content > r.limit {
		return "", &errors.LineTooLongError{Size: content, Limit: r.limit}
	}

	line := string(r.line[:content])
	if first {
		line = strings.TrimPrefix(line, byteOrderMark)
	}

	return strings.ToValidUTF8(line, "\uFFFD"), nil
}

// terminatorLength returns the length of the \n or \r\n ending a line of
// size bytes whose last two bytes are tail.
func terminatorLength(tail [2]byte, size int) int {
	switch {
	case tail[1] != '\n':
		return 0
	case size >= 2 && tail[0] == '\r':
		return 2
	default:
		return 1
	}
}

// Writer writes newline-terminated lines to a stream, flushing after each one.
// Writer is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex // serializes writers; Close does not take it
	w      io.WriteCloser
	buf    *bufio.Writer
	closed atomic.Bool
}

// NewWriter creates a Writer over w.
func NewWriter(w io.WriteCloser) *Writer {
	return &Writer{
		w:   w,
		buf: bufio.NewWriter(w),
	}
}

// WriteLine writes text followed by a newline and flushes it to the stream.
//
// Returns ErrEmbeddedNewline if text contains a line terminator, and
// ErrChannelClosed after Close.
func (w *Writer) WriteLine(text string) error {
	if strings.ContainsAny(text, "\r\n") {
		return errors.ErrEmbeddedNewline
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed.Load() {
		return errors.ErrChannelClosed
	}

	_, _ = w.buf.WriteString(text)
	_ = w.buf.WriteByte('\n')

	if err := w.buf.Flush(); err != nil {
		if w.closed.Load() {
			return errors.ErrChannelClosed
		}

		return err
	}

	return nil
}

// Close closes the underlying stream. Closing an already closed Writer is a no-op.
//
// Close does not wait for an in-flight WriteLine; closing the stream unblocks it.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}

	return w.w.Close()
}

// Closed reports whether Close has been called.
func (w *Writer) Closed() bool {
	return w.closed.Load()
}
