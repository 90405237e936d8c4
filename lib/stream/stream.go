// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"fmt"
)

// Source produces an ordered sequence of bytes. Implementations are
// single-owner: exactly one caller reads from a Source, and wrapping
// layers take exclusive ownership of the Source they wrap.
type Source interface {
	// Read returns up to max bytes. It blocks for at most one
	// underlying fetch: it returns whatever that fetch produced,
	// which is always at least one byte unless the stream has
	// ended. At end of stream it returns ErrEndOfStream; it never
	// returns an empty slice with a nil error.
	Read(ctx context.Context, max int) ([]byte, error)

	// BytesRead reports the total number of bytes returned to the
	// caller so far. Bytes fetched internally (readahead, sealed
	// framing overhead) but not yet delivered do not count.
	BytesRead() int64

	// Close releases the source and any inner stream it owns.
	// Idempotent: second and later calls are no-ops.
	Close() error
}

// Sink consumes an ordered sequence of bytes.
type Sink interface {
	// Write accepts all of data or fails. Partial writes are never
	// observable: a layer either fully applies a write (after any
	// internal transformation) or returns an error.
	Write(ctx context.Context, data []byte) error

	// BytesWritten reports the total number of bytes accepted from
	// the caller by successful Write calls.
	BytesWritten() int64

	// Close flushes any retained bytes, releases the sink and any
	// inner stream it owns. Idempotent.
	Close() error
}

// Flusher is implemented by sinks that retain bytes between writes
// and can be forced to drain them to the inner stream.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Filter is a stateful, single-use transform interposed between a
// stream and its underlying stream. A Filter is bound to exactly one
// pipeline for its lifetime: construct a fresh one per FilterSource or
// FilterSink, never reuse or share one.
type Filter interface {
	// Process transforms one inbound chunk. Output size need not
	// match input size; returning an empty slice is legitimate when
	// the filter is still accumulating internally.
	Process(data []byte) ([]byte, error)

	// Finish is called exactly once, at end of stream for a
	// FilterSource or at Close for a FilterSink, and returns any
	// trailing output. The owning pipeline enforces the
	// exactly-once property.
	Finish() ([]byte, error)
}

// ReadNext reads from source until exactly n bytes are collected or
// the stream ends. A short (even empty) result is returned when the
// stream ends mid-collection; ErrEndOfStream is returned only when
// the stream was already ended and nothing was collected.
//
// On any other error the bytes collected before the failure are
// returned alongside it: the source has already delivered them and
// advanced past them, so a caller that discards them loses them
// permanently. Stateful callers retain the prefix and resume.
func ReadNext(ctx context.Context, source Source, n int) ([]byte, error) {
	var collected []byte
	for len(collected) < n {
		data, err := source.Read(ctx, n-len(collected))
		if errors.Is(err, ErrEndOfStream) {
			if len(collected) == 0 {
				return nil, ErrEndOfStream
			}
			return collected, nil
		}
		if err != nil {
			return collected, err
		}
		collected = append(collected, data...)
	}
	return collected, nil
}

// ReadExactly reads exactly n bytes from source. Unlike ReadNext, a
// stream that ends before n bytes were collected is an error: the
// returned error wraps ErrEndOfStream. Like ReadNext, any collected
// prefix is returned alongside a non-end error.
func ReadExactly(ctx context.Context, source Source, n int) ([]byte, error) {
	collected, err := ReadNext(ctx, source, n)
	if errors.Is(err, ErrEndOfStream) {
		return nil, fmt.Errorf("needed %d bytes, stream ended with 0: %w", n, ErrEndOfStream)
	}
	if err != nil {
		return collected, err
	}
	if len(collected) < n {
		return nil, fmt.Errorf("needed %d bytes, stream ended with %d: %w", n, len(collected), ErrEndOfStream)
	}
	return collected, nil
}

// Pipe drains source into sink in segments of the given size,
// returning the number of bytes transferred. Neither stream is
// closed; the caller retains ownership of both.
func Pipe(ctx context.Context, source Source, sink Sink, segmentSize int) (int64, error) {
	if segmentSize <= 0 {
		return 0, fmt.Errorf("segment size must be positive, got %d", segmentSize)
	}
	var transferred int64
	for {
		data, err := source.Read(ctx, segmentSize)
		if errors.Is(err, ErrEndOfStream) {
			return transferred, nil
		}
		if err != nil {
			return transferred, err
		}
		if err := sink.Write(ctx, data); err != nil {
			return transferred, err
		}
		transferred += int64(len(data))
	}
}
