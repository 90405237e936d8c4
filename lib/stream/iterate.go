// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"iter"
)

// Exactly exposes source as a lazy sequence of size-byte buffers. The
// final buffer may be shorter when the stream ends mid-buffer. The
// sequence is single-pass and non-restartable: once it stops (by
// exhaustion, error, or early break) iterating again yields nothing.
// The source is not closed; the caller retains ownership.
//
// A failing read yields the bytes collected before the failure
// alongside the error, so a caller that cares can keep them; the
// sequence then stops.
func Exactly(ctx context.Context, source Source, size int) iter.Seq2[[]byte, error] {
	done := false
	return func(yield func([]byte, error) bool) {
		if done {
			return
		}
		done = true
		for {
			data, err := ReadNext(ctx, source, size)
			if errors.Is(err, ErrEndOfStream) {
				return
			}
			if err != nil {
				yield(data, err)
				return
			}
			if !yield(data, nil) {
				return
			}
		}
	}
}

// UpTo exposes source as a lazy sequence of buffers of at most max
// bytes, one per underlying read. Single-pass like Exactly.
func UpTo(ctx context.Context, source Source, max int) iter.Seq2[[]byte, error] {
	done := false
	return func(yield func([]byte, error) bool) {
		if done {
			return
		}
		done = true
		for {
			data, err := source.Read(ctx, max)
			if errors.Is(err, ErrEndOfStream) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(data, nil) {
				return
			}
		}
	}
}
