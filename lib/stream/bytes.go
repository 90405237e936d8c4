// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"fmt"
)

// BytesSource is a Source backed by an in-memory byte slice. It never
// suspends: reads complete immediately, though a context that is
// already cancelled still aborts the operation before any bytes are
// delivered.
type BytesSource struct {
	data      []byte
	offset    int
	bytesRead int64
	closed    bool
}

var _ Source = (*BytesSource)(nil)

// NewBytesSource creates a source over data. The slice is retained,
// not copied; the caller must not mutate it while the source lives.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

func (s *BytesSource) Read(ctx context.Context, max int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed {
		return nil, ErrStreamClosed
	}
	if max <= 0 {
		return nil, fmt.Errorf("read size must be positive, got %d", max)
	}
	remaining := len(s.data) - s.offset
	if remaining == 0 {
		return nil, ErrEndOfStream
	}
	take := min(max, remaining)
	out := make([]byte, take)
	copy(out, s.data[s.offset:s.offset+take])
	s.offset += take
	s.bytesRead += int64(take)
	return out, nil
}

func (s *BytesSource) BytesRead() int64 {
	return s.bytesRead
}

func (s *BytesSource) Close() error {
	s.closed = true
	return nil
}

// BytesSink is a Sink that accumulates written bytes in memory.
type BytesSink struct {
	data         []byte
	bytesWritten int64
	closed       bool
}

var _ Sink = (*BytesSink)(nil)

// NewBytesSink creates an empty in-memory sink.
func NewBytesSink() *BytesSink {
	return &BytesSink{}
}

func (s *BytesSink) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrStreamClosed
	}
	s.data = append(s.data, data...)
	s.bytesWritten += int64(len(data))
	return nil
}

func (s *BytesSink) BytesWritten() int64 {
	return s.bytesWritten
}

func (s *BytesSink) Close() error {
	s.closed = true
	return nil
}

// Bytes returns the accumulated contents. Valid before and after
// Close; the returned slice is the sink's backing storage.
func (s *BytesSink) Bytes() []byte {
	return s.data
}
