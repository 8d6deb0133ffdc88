package linechan

import (
	"bytes"
	stderrors "errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
	"github.com/wagiedev/noderpc-go/internal/errors"
)

// mockChunkReader delivers data in controlled chunks to simulate pipe reads.
type mockChunkReader struct {
	chunks [][]byte
	index  int
}

func newMockChunkReader(chunks ...string) *mockChunkReader {
	byteChunks := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		byteChunks[i] = []byte(chunk)
	}

	return &mockChunkReader{chunks: byteChunks}
}

func (r *mockChunkReader) Read(p []byte) (int, error) {
	if r.index >= len(r.chunks) {
		return 0, io.EOF
	}

	chunk := r.chunks[r.index]
	r.index++

	return copy(p, chunk), nil
}

// nopWriteCloser records whether Close was called.
type nopWriteCloser struct {
	bytes.Buffer
	closes int
}

func (w *nopWriteCloser) Close() error {
	w.closes++

	return nil
}

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()

	var lines []string

	for {
		line, err := r.ReadLine()
		if stderrors.Is(err, io.EOF) {
			return lines
		}

		require.NoError(t, err)

		lines = append(lines, line)
	}
}

func TestReadLine_SplitAcrossReads(t *testing.T) {
	r := NewReader(newMockChunkReader(`[1,"o`, `k"]`+"\nnoise\n", "[2]\n"), 0)

	require.Equal(t, []string{`[1,"ok"]`, "noise", "[2]"}, readAll(t, r))
}

func TestReadLine_EmptyLinesAndCRLF(t *testing.T) {
	r := NewReader(strings.NewReader("first\r\n\r\n\nlast"), 0)

	require.Equal(t, []string{"first", "", "", "last"}, readAll(t, r))
}

func TestReadLine_DropsLeadingBOMOnly(t *testing.T) {
	r := NewReader(strings.NewReader("\uFEFF[1]\n\uFEFF[2]\n"), 0)

	require.Equal(t, []string{"[1]", "\uFEFF[2]"}, readAll(t, r))
}

func TestReadLine_ReplacesInvalidUTF8(t *testing.T) {
	r := NewReader(strings.NewReader("caf\xe9\n"), 0)

	require.Equal(t, []string{"caf\uFFFD"}, readAll(t, r))
}

func TestReadLine_EOFIsSticky(t *testing.T) {
	r := NewReader(strings.NewReader(""), 0)

	_, err := r.ReadLine()
	require.ErrorIs(t, err, io.EOF)

	_, err = r.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestReadLine_SkipsOverlongLines(t *testing.T) {
	input := strings.Repeat("a", 128) + "\n" +
		"next\r\n" +
		strings.Repeat("b", 40) + "\r\n" +
		strings.Repeat("c", 16) + "\n" +
		"last"

	r := NewReader(strings.NewReader(input), 16)

	_, err := r.ReadLine()
	tooLong, ok := stderrors.AsType[*errors.LineTooLongError](err)
	require.True(t, ok, "got %v", err)
	require.Equal(t, 128, tooLong.Size)
	require.Equal(t, 16, tooLong.Limit)

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "next", line)

	_, err = r.ReadLine()
	tooLong, ok = stderrors.AsType[*errors.LineTooLongError](err)
	require.True(t, ok, "got %v", err)
	require.Equal(t, 40, tooLong.Size, "terminator is not counted")

	// A line of exactly the limit is accepted.
	line, err = r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("c", 16), line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "last", line)

	_, err = r.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestReadLine_OverlongLineSplitAcrossReads(t *testing.T) {
	r := NewReader(iotest.OneByteReader(strings.NewReader(strings.Repeat("x", 40)+"\r\n[1]\n")), 16)

	_, err := r.ReadLine()
	tooLong, ok := stderrors.AsType[*errors.LineTooLongError](err)
	require.True(t, ok, "got %v", err)
	require.Equal(t, 40, tooLong.Size)

	require.Equal(t, []string{"[1]"}, readAll(t, r))
}

func TestWriteLine_AppendsTerminator(t *testing.T) {
	sink := &nopWriteCloser{}
	w := NewWriter(sink)

	require.NoError(t, w.WriteLine(`["reload",{"path":"a.css"}]`))
	require.NoError(t, w.WriteLine(""))

	require.Equal(t, "[\"reload\",{\"path\":\"a.css\"}]\n\n", sink.String())
}

func TestWriteLine_RejectsEmbeddedNewline(t *testing.T) {
	sink := &nopWriteCloser{}
	w := NewWriter(sink)

	require.ErrorIs(t, w.WriteLine("a\nb"), errors.ErrEmbeddedNewline)
	require.ErrorIs(t, w.WriteLine("a\r"), errors.ErrEmbeddedNewline)
	require.Empty(t, sink.String())
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	sink := &nopWriteCloser{}
	w := NewWriter(sink)

	require.False(t, w.Closed())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.True(t, w.Closed())
	require.Equal(t, 1, sink.closes)

	require.ErrorIs(t, w.WriteLine("late"), errors.ErrChannelClosed)
}

// TestWriteLine_FlushesEachLine checks that every line is visible to the reader
// side of a pipe without waiting for more writes.
func TestWriteLine_FlushesEachLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()

	w := NewWriter(pw)
	r := NewReader(pr, 0)

	for i := range 3 {
		errCh := make(chan error, 1)

		go func() {
			errCh <- w.WriteLine("line " + strconv.Itoa(i))
		}()

		line, err := r.ReadLine()
		require.NoError(t, err)
		require.Equal(t, "line "+strconv.Itoa(i), line)
		require.NoError(t, <-errCh)
	}

	require.NoError(t, w.Close())

	_, err := r.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestWriteLine_ConcurrentWritersDoNotInterleave(t *testing.T) {
	pr, pw := io.Pipe()
	w := NewWriter(pw)

	const writers = 10

	payload := strings.Repeat("y", 300)

	var wg sync.WaitGroup

	for i := range writers {
		wg.Go(func() {
			_ = w.WriteLine(strconv.Itoa(i) + ":" + payload)
		})
	}

	go func() {
		wg.Wait()
		_ = w.Close()
	}()

	lines := readAll(t, NewReader(pr, 0))
	require.Len(t, lines, writers)

	for _, line := range lines {
		_, rest, ok := strings.Cut(line, ":")
		require.True(t, ok)
		require.Equal(t, payload, rest)
	}
}

func TestNewChannel(t *testing.T) {
	stdin := &nopWriteCloser{}
	ch := New(stdin, strings.NewReader("out\n"), strings.NewReader("err\n"), 0)

	line, err := ch.Stdout.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "out", line)

	line, err = ch.Stderr.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "err", line)

	require.NoError(t, ch.Stdin.WriteLine("in"))
	require.Equal(t, "in\n", stdin.String())
}
