// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"fmt"
)

// BufferedSource wraps a Source with an accumulator so that callers
// issuing many small reads do not generate one underlying fetch per
// call. Underlying fetches always request exactly the configured
// segment size (the final fetch of a stream may of course come back
// short). The buffered source owns the inner source and closes it on
// Close.
type BufferedSource struct {
	inner       Source
	segmentSize int
	buffer      byteQueue
	bytesRead   int64
	ended       bool
	closed      bool
}

var _ Source = (*BufferedSource)(nil)

// NewBufferedSource wraps inner. Wrapping an already-buffered source
// is a no-op: the existing BufferedSource is returned unchanged, so
// accidental double wrapping does not double the buffering.
func NewBufferedSource(inner Source, segmentSize int) *BufferedSource {
	if buffered, ok := inner.(*BufferedSource); ok {
		return buffered
	}
	if segmentSize <= 0 {
		panic(fmt.Sprintf("stream: segment size must be positive, got %d", segmentSize))
	}
	return &BufferedSource{inner: inner, segmentSize: segmentSize}
}

// Require pulls from the inner source in segment-sized fetches until
// the accumulator holds at least n bytes or the inner source ends.
// It reports whether the requirement was satisfiable.
func (s *BufferedSource) Require(ctx context.Context, n int) (bool, error) {
	if s.closed {
		return false, ErrStreamClosed
	}
	for s.buffer.len() < n && !s.ended {
		data, err := s.inner.Read(ctx, s.segmentSize)
		if errors.Is(err, ErrEndOfStream) {
			s.ended = true
			break
		}
		if err != nil {
			return false, err
		}
		s.buffer.append(data)
	}
	return s.buffer.len() >= n, nil
}

func (s *BufferedSource) Read(ctx context.Context, max int) ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		return nil, fmt.Errorf("read size must be positive, got %d", max)
	}
	if s.buffer.len() == 0 {
		// One pull sized to satisfy max. Serving from a primed
		// buffer never touches the inner source.
		if _, err := s.Require(ctx, max); err != nil {
			return nil, err
		}
		if s.buffer.len() == 0 {
			return nil, ErrEndOfStream
		}
	}
	out := s.buffer.take(min(max, s.buffer.len()))
	s.bytesRead += int64(len(out))
	return out, nil
}

func (s *BufferedSource) BytesRead() int64 {
	return s.bytesRead
}

func (s *BufferedSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.inner.Close()
}

// BufferedSink wraps a Sink with an accumulator: written bytes are
// retained until a full segment is available, then forwarded in exact
// segment-sized chunks. Close flushes the remaining tail (smaller
// than a segment) before closing the owned inner sink.
type BufferedSink struct {
	inner        Sink
	segmentSize  int
	buffer       byteQueue
	bytesWritten int64
	closed       bool
}

var (
	_ Sink    = (*BufferedSink)(nil)
	_ Flusher = (*BufferedSink)(nil)
)

// NewBufferedSink wraps inner. Like NewBufferedSource, wrapping an
// already-buffered sink returns it unchanged.
func NewBufferedSink(inner Sink, segmentSize int) *BufferedSink {
	if buffered, ok := inner.(*BufferedSink); ok {
		return buffered
	}
	if segmentSize <= 0 {
		panic(fmt.Sprintf("stream: segment size must be positive, got %d", segmentSize))
	}
	return &BufferedSink{inner: inner, segmentSize: segmentSize}
}

func (s *BufferedSink) Write(ctx context.Context, data []byte) error {
	if s.closed {
		return ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.buffer.appendCopy(data)
	if err := s.forward(ctx); err != nil {
		// Keep Write all-or-error from the caller's view: remove
		// the bytes this call appended that were not forwarded,
		// so retrying the same Write does not duplicate them.
		// Bytes retained from earlier successful writes stay.
		s.buffer.truncate(max(s.buffer.len()-len(data), 0))
		return err
	}
	s.bytesWritten += int64(len(data))
	return nil
}

// forward writes full segments to the inner sink. A segment leaves
// the accumulator only after the inner write succeeds: a failed or
// cancelled inner write loses nothing, and the segment is forwarded
// again by the next successful operation.
func (s *BufferedSink) forward(ctx context.Context) error {
	for s.buffer.len() >= s.segmentSize {
		if err := s.inner.Write(ctx, s.buffer.peek(s.segmentSize)); err != nil {
			return err
		}
		s.buffer.take(s.segmentSize)
	}
	return nil
}

// Flush forwards everything the accumulator holds, including a tail
// smaller than the segment size. Like Write, bytes leave the
// accumulator only once the inner sink has accepted them.
func (s *BufferedSink) Flush(ctx context.Context) error {
	if s.closed {
		return ErrStreamClosed
	}
	if err := s.forward(ctx); err != nil {
		return err
	}
	if s.buffer.len() > 0 {
		if err := s.inner.Write(ctx, s.buffer.peek(s.buffer.len())); err != nil {
			return err
		}
		s.buffer.takeAll()
	}
	return nil
}

func (s *BufferedSink) BytesWritten() int64 {
	return s.bytesWritten
}

// Close flushes the remaining tail and closes the inner sink. The
// inner sink is closed even when the flush fails; the flush error
// wins over any close error.
func (s *BufferedSink) Close() error {
	if s.closed {
		return nil
	}
	flushErr := s.Flush(context.Background())
	s.closed = true
	closeErr := s.inner.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
