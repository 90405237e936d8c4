// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"fmt"
)

// FilterSource runs every byte read from the inner source through a
// Filter. When the inner source ends, the filter's Finish runs
// exactly once and its trailing output (if any) is served before the
// end-of-stream signal. Errors from the filter are wrapped in
// FilterError; errors from the inner source pass through unwrapped.
type FilterSource struct {
	inner   Source
	filter  Filter
	pending byteQueue
	// staged holds raw inner bytes fetched by a Read that then
	// failed before the filter processed them. The next Read
	// consumes them first, so a cancelled or failed call loses
	// nothing the inner source already delivered.
	staged    byteQueue
	bytesRead int64
	finished  bool
	closed    bool
}

var _ Source = (*FilterSource)(nil)

// NewFilterSource interposes filter between inner and the caller.
// The filter must be fresh: filters are single-use and bound to one
// pipeline for their lifetime.
func NewFilterSource(inner Source, filter Filter) *FilterSource {
	return &FilterSource{inner: inner, filter: filter}
}

func (s *FilterSource) Read(ctx context.Context, max int) ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		return nil, fmt.Errorf("read size must be positive, got %d", max)
	}
	for s.pending.len() == 0 {
		if s.finished {
			return nil, ErrEndOfStream
		}
		var raw []byte
		if s.staged.len() >= max {
			raw = s.staged.take(max)
		} else {
			fetched, err := ReadNext(ctx, s.inner, max-s.staged.len())
			if err != nil && !errors.Is(err, ErrEndOfStream) {
				// Retain what the inner source delivered
				// before the failure; the next call resumes
				// with these bytes first.
				s.staged.append(fetched)
				return nil, err
			}
			if errors.Is(err, ErrEndOfStream) && s.staged.len() == 0 {
				s.finished = true
				trailing, err := s.filter.Finish()
				if err != nil {
					return nil, &FilterError{Cause: err}
				}
				s.pending.append(trailing)
				continue
			}
			raw = append(s.staged.takeAll(), fetched...)
		}
		transformed, err := s.filter.Process(raw)
		if err != nil {
			return nil, &FilterError{Cause: err}
		}
		// An empty result means the filter is accumulating;
		// loop for more input rather than returning an empty
		// non-end read. Each pass consumes inner data or hits
		// end of stream, so the loop terminates.
		s.pending.append(transformed)
	}
	out := s.pending.take(min(max, s.pending.len()))
	s.bytesRead += int64(len(out))
	return out, nil
}

func (s *FilterSource) BytesRead() int64 {
	return s.bytesRead
}

// Close closes the inner source. If the stream was not drained to the
// end, the filter's Finish never runs and any internally buffered
// bytes are discarded.
func (s *FilterSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.inner.Close()
}

// FilterSink runs every written byte through a Filter before
// forwarding to the inner sink. Close runs the filter's Finish
// exactly once, writes its trailing output, and closes the inner
// sink.
type FilterSink struct {
	inner        Sink
	filter       Filter
	bytesWritten int64
	closed       bool
}

var _ Sink = (*FilterSink)(nil)

// NewFilterSink interposes filter between the caller and inner. The
// filter must be fresh, as with NewFilterSource.
func NewFilterSink(inner Sink, filter Filter) *FilterSink {
	return &FilterSink{inner: inner, filter: filter}
}

func (s *FilterSink) Write(ctx context.Context, data []byte) error {
	if s.closed {
		return ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	transformed, err := s.filter.Process(data)
	if err != nil {
		return &FilterError{Cause: err}
	}
	if len(transformed) > 0 {
		if err := s.inner.Write(ctx, transformed); err != nil {
			return err
		}
	}
	s.bytesWritten += int64(len(data))
	return nil
}

func (s *FilterSink) BytesWritten() int64 {
	return s.bytesWritten
}

// Close finalizes the filter, writes its trailing output, and closes
// the inner sink. The inner sink is closed on every path, including
// when Finish or the trailing write fails; the first error wins.
func (s *FilterSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstError error
	trailing, err := s.filter.Finish()
	if err != nil {
		firstError = &FilterError{Cause: err}
	} else if len(trailing) > 0 {
		if err := s.inner.Write(context.Background(), trailing); err != nil {
			firstError = err
		}
	}
	if err := s.inner.Close(); err != nil && firstError == nil {
		firstError = err
	}
	return firstError
}
