package transcript

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept in memory when no capacity is configured.
const DefaultCapacity = 1000

// Direction tags where a transcript line came from.
type Direction int

const (
	// Incoming is a line read from the child's stdout.
	Incoming Direction = iota
	// Outgoing is a line written to the child's stdin.
	Outgoing
	// Error is a line read from the child's stderr.
	Error
)

// String returns the prefix written to the sink for this direction.
func (d Direction) String() string {
	switch d {
	case Incoming:
		return "INCOMING"
	case Outgoing:
		return "OUTGOING"
	case Error:
		return "STDERR"
	default:
		return "UNKNOWN"
	}
}

// Entry is a single transcript line.
type Entry struct {
	Direction Direction
	Text      string
	Time      time.Time
}

// String formats the entry the way it is written to the sink, without the terminator.
func (e Entry) String() string {
	return e.Direction.String() + ": " + e.Text
}

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

// Logger is an append-only, concurrency-safe transcript.
type Logger struct {
	log *slog.Logger

	mu       sync.Mutex
	sink     io.Writer
	entries  []Entry
	start    int
	capacity int
	now      func() time.Time
}

// New creates a transcript Logger writing to sink.
//
// A nil sink keeps the transcript in memory only. capacity bounds the number of
// entries retained for Entries; values below one use DefaultCapacity.
func New(log *slog.Logger, sink io.Writer, capacity int) *Logger {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &Logger{
		log:      log.With("component", "transcript"),
		sink:     sink,
		entries:  make([]Entry, 0, min(capacity, 64)),
		capacity: capacity,
		now:      time.Now,
	}
}

// Append records one line. Sink failures are logged and never returned.
func (l *Logger) Append(dir Direction, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{Direction: dir, Text: text, Time: l.now()}
	l.remember(entry)

	if l.sink == nil {
		return
	}

	if _, err := io.WriteString(l.sink, entry.String()+"\n"); err != nil {
		l.log.Warn("Failed to write transcript entry", "direction", dir.String(), "error", err)

		return
	}

	l.flush()
}

// Entries returns the retained entries in insertion order.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	out = append(out, l.entries[l.start:]...)
	out = append(out, l.entries[:l.start]...)

	return out
}

// Tail returns at most n of the most recent entries.
func (l *Logger) Tail(n int) []Entry {
	all := l.Entries()
	if n <= 0 || n >= len(all) {
		return all
	}

	return all[len(all)-n:]
}

// remember stores entry in the ring. Caller must hold l.mu.
func (l *Logger) remember(entry Entry) {
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, entry)

		return
	}

	l.entries[l.start] = entry
	l.start = (l.start + 1) % l.capacity
}

// flush pushes buffered sink data through. Caller must hold l.mu.
func (l *Logger) flush() {
	var err error

	switch s := l.sink.(type) {
	case flusher:
		err = s.Flush()
	case syncer:
		err = s.Sync()
	}

	if err != nil {
		l.log.Debug("Failed to flush transcript sink", "error", err)
	}
}
