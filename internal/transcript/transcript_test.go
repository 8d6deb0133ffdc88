package transcript

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingWriter records writes and flushes.
type countingWriter struct {
	bytes.Buffer
	flushes int
}

func (w *countingWriter) Flush() error {
	w.flushes++

	return nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestDirectionPrefixes(t *testing.T) {
	require.Equal(t, "INCOMING", Incoming.String())
	require.Equal(t, "OUTGOING", Outgoing.String())
	require.Equal(t, "STDERR", Error.String())
	require.Equal(t, "UNKNOWN", Direction(99).String())
}

func TestAppend_WritesPrefixedLineAndFlushes(t *testing.T) {
	sink := &countingWriter{}
	logger := New(discardLogger(), sink, 0)

	logger.Append(Incoming, `[1,"ok"]`)
	logger.Append(Outgoing, `["reload",{"path":"a.css"}]`)
	logger.Append(Error, "warning: deprecated")

	require.Equal(t,
		"INCOMING: [1,\"ok\"]\n"+
			"OUTGOING: [\"reload\",{\"path\":\"a.css\"}]\n"+
			"STDERR: warning: deprecated\n",
		sink.String(),
	)
	require.Equal(t, 3, sink.flushes)
}

func TestAppend_NilSinkKeepsEntries(t *testing.T) {
	logger := New(discardLogger(), nil, 0)

	logger.Append(Incoming, "noise")

	entries := logger.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, Incoming, entries[0].Direction)
	require.Equal(t, "noise", entries[0].Text)
	require.False(t, entries[0].Time.IsZero())
}

func TestAppend_SinkErrorDoesNotDropEntry(t *testing.T) {
	logger := New(discardLogger(), failingWriter{}, 0)

	require.NotPanics(t, func() {
		logger.Append(Outgoing, "hello")
	})
	require.Len(t, logger.Entries(), 1)
}

func TestEntries_RingKeepsMostRecent(t *testing.T) {
	logger := New(discardLogger(), nil, 3)

	for i := range 5 {
		logger.Append(Incoming, strconv.Itoa(i))
	}

	entries := logger.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "2", entries[0].Text)
	require.Equal(t, "3", entries[1].Text)
	require.Equal(t, "4", entries[2].Text)

	tail := logger.Tail(2)
	require.Len(t, tail, 2)
	require.Equal(t, "3", tail[0].Text)
	require.Equal(t, "4", tail[1].Text)

	require.Len(t, logger.Tail(0), 3)
	require.Len(t, logger.Tail(10), 3)
}

// TestAppend_ConcurrentWritersProduceWholeLines appends from several goroutines
// at once and checks that no sink line is interleaved with another.
func TestAppend_ConcurrentWritersProduceWholeLines(t *testing.T) {
	var sink bytes.Buffer

	logger := New(discardLogger(), &sink, 10_000)

	const (
		writers   = 8
		perWriter = 200
	)

	payload := strings.Repeat("x", 512)

	var wg sync.WaitGroup

	for w := range writers {
		wg.Go(func() {
			dir := Direction(w % 3)
			for i := range perWriter {
				logger.Append(dir, strconv.Itoa(w)+":"+strconv.Itoa(i)+":"+payload)
			}
		})
	}

	wg.Wait()

	scanner := bufio.NewScanner(&sink)
	scanner.Buffer(make([]byte, 4096), 4096)

	lines := 0

	for scanner.Scan() {
		line := scanner.Text()
		prefix, text, ok := strings.Cut(line, ": ")
		require.True(t, ok, "line without prefix: %q", line)
		require.Contains(t, []string{"INCOMING", "OUTGOING", "STDERR"}, prefix)

		parts := strings.SplitN(text, ":", 3)
		require.Len(t, parts, 3)
		require.Equal(t, payload, parts[2])

		lines++
	}

	require.NoError(t, scanner.Err())
	require.Equal(t, writers*perWriter, lines)
	require.Len(t, logger.Entries(), writers*perWriter)
}
