// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bureau-foundation/streambox/lib/testutil"
)

// dripSource returns at most drip bytes per Read regardless of max,
// exercising callers that must accumulate across short reads.
type dripSource struct {
	inner *BytesSource
	drip  int
}

func newDripSource(data []byte, drip int) *dripSource {
	return &dripSource{inner: NewBytesSource(data), drip: drip}
}

func (s *dripSource) Read(ctx context.Context, max int) ([]byte, error) {
	return s.inner.Read(ctx, min(max, s.drip))
}

func (s *dripSource) BytesRead() int64 { return s.inner.BytesRead() }
func (s *dripSource) Close() error     { return s.inner.Close() }

func TestBytesSourceChunkedReconstruction(t *testing.T) {
	data := testutil.PatternBytes(1000)

	// Any sequence of read sizes summing past the total must
	// reconstruct the data exactly.
	for _, sizes := range [][]int{
		{1000},
		{1, 999},
		{333, 333, 333, 1},
		{7, 7, 7, 7, 2000},
	} {
		source := NewBytesSource(data)
		var rebuilt []byte
		for _, size := range sizes {
			chunk, err := source.Read(context.Background(), size)
			if errors.Is(err, ErrEndOfStream) {
				break
			}
			if err != nil {
				t.Fatalf("sizes %v: Read: %v", sizes, err)
			}
			rebuilt = append(rebuilt, chunk...)
		}
		// Drain the remainder.
		for {
			chunk, err := source.Read(context.Background(), 100)
			if errors.Is(err, ErrEndOfStream) {
				break
			}
			if err != nil {
				t.Fatalf("sizes %v: drain: %v", sizes, err)
			}
			rebuilt = append(rebuilt, chunk...)
		}
		if !bytes.Equal(rebuilt, data) {
			t.Errorf("sizes %v: reconstruction mismatch (%d bytes vs %d)", sizes, len(rebuilt), len(data))
		}
		if source.BytesRead() != int64(len(data)) {
			t.Errorf("sizes %v: BytesRead = %d, want %d", sizes, source.BytesRead(), len(data))
		}
	}
}

func TestBytesSourceEndOfStreamRepeats(t *testing.T) {
	source := NewBytesSource([]byte("ab"))
	if _, err := source.Read(context.Background(), 10); err != nil {
		t.Fatalf("Read: %v", err)
	}
	// End of stream is reported on every subsequent call, never an
	// error, never an empty non-end result.
	for i := 0; i < 3; i++ {
		_, err := source.Read(context.Background(), 10)
		if !errors.Is(err, ErrEndOfStream) {
			t.Fatalf("call %d past end: got %v, want ErrEndOfStream", i, err)
		}
	}
}

func TestReadNextAccumulatesAcrossShortReads(t *testing.T) {
	data := testutil.PatternBytes(100)
	source := newDripSource(data, 7)

	collected, err := ReadNext(context.Background(), source, 50)
	if err != nil {
		t.Fatalf("ReadNext: %v", err)
	}
	if !bytes.Equal(collected, data[:50]) {
		t.Error("ReadNext content mismatch")
	}
}

func TestReadNextShortAtEndOfStream(t *testing.T) {
	source := newDripSource(testutil.PatternBytes(30), 7)

	collected, err := ReadNext(context.Background(), source, 100)
	if err != nil {
		t.Fatalf("ReadNext: %v", err)
	}
	if len(collected) != 30 {
		t.Errorf("got %d bytes, want 30", len(collected))
	}

	// Nothing left: now ReadNext reports end of stream.
	if _, err := ReadNext(context.Background(), source, 1); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("got %v, want ErrEndOfStream", err)
	}
}

// flakySource serves its data in drip-sized chunks and fails exactly
// once when the configured byte offset is reached, then resumes from
// where it left off.
type flakySource struct {
	data   []byte
	drip   int
	failAt int
	failed bool
	offset int
}

var errSourceHiccup = errors.New("source temporarily unavailable")

func (s *flakySource) Read(ctx context.Context, max int) ([]byte, error) {
	if !s.failed && s.offset >= s.failAt {
		s.failed = true
		return nil, errSourceHiccup
	}
	if s.offset == len(s.data) {
		return nil, ErrEndOfStream
	}
	n := min(max, s.drip, len(s.data)-s.offset)
	chunk := s.data[s.offset : s.offset+n]
	s.offset += n
	return chunk, nil
}

func (s *flakySource) BytesRead() int64 { return int64(s.offset) }
func (s *flakySource) Close() error     { return nil }

func TestReadNextReturnsPrefixOnError(t *testing.T) {
	data := testutil.PatternBytes(10)
	source := &flakySource{data: data, drip: 2, failAt: 4}

	prefix, err := ReadNext(context.Background(), source, 10)
	if !errors.Is(err, errSourceHiccup) {
		t.Fatalf("ReadNext: got %v, want the inner source's error", err)
	}
	if !bytes.Equal(prefix, data[:4]) {
		t.Fatalf("ReadNext returned %d bytes with the error, want the 4 delivered", len(prefix))
	}

	// Every counted byte was handed out: the retry picks up exactly
	// where the failure left off.
	rest, err := ReadNext(context.Background(), source, 10)
	if err != nil {
		t.Fatalf("retried ReadNext: %v", err)
	}
	if !bytes.Equal(append(prefix, rest...), data) {
		t.Error("prefix and retry do not reassemble the stream")
	}
}

func TestBytesSourceRejectsNonPositiveRead(t *testing.T) {
	source := NewBytesSource(nil)
	for _, max := range []int{0, -1} {
		_, err := source.Read(context.Background(), max)
		if err == nil || errors.Is(err, ErrEndOfStream) {
			t.Errorf("Read(max=%d) = %v, want a validation error", max, err)
		}
	}
}

func TestReadExactly(t *testing.T) {
	source := NewBytesSource(testutil.PatternBytes(10))
	if _, err := ReadExactly(context.Background(), source, 10); err != nil {
		t.Fatalf("ReadExactly full: %v", err)
	}

	short := NewBytesSource(testutil.PatternBytes(5))
	_, err := ReadExactly(context.Background(), short, 10)
	if !errors.Is(err, ErrEndOfStream) {
		t.Errorf("short ReadExactly: got %v, want wrapped ErrEndOfStream", err)
	}
}

func TestBytesSinkAccumulates(t *testing.T) {
	sink := NewBytesSink()
	data := testutil.PatternBytes(100)
	if err := sink.Write(context.Background(), data[:40]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Write(context.Background(), data[40:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(sink.Bytes(), data) {
		t.Error("sink content mismatch")
	}
	if sink.BytesWritten() != 100 {
		t.Errorf("BytesWritten = %d, want 100", sink.BytesWritten())
	}
}

func TestClosedStreamsRejectOperations(t *testing.T) {
	source := NewBytesSource([]byte("data"))
	if err := source.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := source.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := source.Read(context.Background(), 1); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("read after close: got %v, want ErrStreamClosed", err)
	}

	sink := NewBytesSink()
	sink.Close()
	if err := sink.Write(context.Background(), []byte("x")); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("write after close: got %v, want ErrStreamClosed", err)
	}
}

func TestPipe(t *testing.T) {
	data := testutil.PatternBytes(10_000)
	source := NewBytesSource(data)
	sink := NewBytesSink()

	transferred, err := Pipe(context.Background(), source, sink, 777)
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	if transferred != int64(len(data)) {
		t.Errorf("transferred = %d, want %d", transferred, len(data))
	}
	if !bytes.Equal(sink.Bytes(), data) {
		t.Error("piped content mismatch")
	}
}

func TestCancelledContextStopsInMemoryStreams(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := NewBytesSource([]byte("data"))
	if _, err := source.Read(ctx, 4); !errors.Is(err, context.Canceled) {
		t.Errorf("Read with cancelled ctx: got %v, want context.Canceled", err)
	}
	if source.BytesRead() != 0 {
		t.Errorf("BytesRead after cancelled read = %d, want 0", source.BytesRead())
	}

	// The stream stays valid: an uncancelled operation succeeds.
	chunk, err := source.Read(context.Background(), 4)
	if err != nil || !bytes.Equal(chunk, []byte("data")) {
		t.Errorf("subsequent read: %q, %v", chunk, err)
	}
	if source.BytesRead() != 4 {
		t.Errorf("BytesRead = %d, want 4", source.BytesRead())
	}
}

func TestFilterErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("bad block")
	err := error(&FilterError{Cause: cause})
	if !errors.Is(err, cause) {
		t.Error("errors.Is does not see through FilterError")
	}
	var filterError *FilterError
	if !errors.As(err, &filterError) {
		t.Error("errors.As failed for FilterError")
	}
}
