// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import "context"

// CountingSource wraps a Source and records the max argument of every
// underlying Read call. Used to verify call granularity, for example
// that a BufferedSource only ever issues segment-sized fetches.
type CountingSource struct {
	inner Source
	// ReadSizes records the max argument of each Read call, in
	// order, including calls that returned ErrEndOfStream.
	ReadSizes []int
}

var _ Source = (*CountingSource)(nil)

// NewCountingSource wraps inner.
func NewCountingSource(inner Source) *CountingSource {
	return &CountingSource{inner: inner}
}

func (s *CountingSource) Read(ctx context.Context, max int) ([]byte, error) {
	s.ReadSizes = append(s.ReadSizes, max)
	return s.inner.Read(ctx, max)
}

func (s *CountingSource) BytesRead() int64 {
	return s.inner.BytesRead()
}

func (s *CountingSource) Close() error {
	return s.inner.Close()
}

// CountingSink wraps a Sink and records the size of every underlying
// Write call.
type CountingSink struct {
	inner Sink
	// WriteSizes records the length of each Write call, in order.
	WriteSizes []int
}

var _ Sink = (*CountingSink)(nil)

// NewCountingSink wraps inner.
func NewCountingSink(inner Sink) *CountingSink {
	return &CountingSink{inner: inner}
}

func (s *CountingSink) Write(ctx context.Context, data []byte) error {
	s.WriteSizes = append(s.WriteSizes, len(data))
	return s.inner.Write(ctx, data)
}

func (s *CountingSink) BytesWritten() int64 {
	return s.inner.BytesWritten()
}

func (s *CountingSink) Close() error {
	return s.inner.Close()
}
