// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"
	"fmt"
)

// ErrEndOfStream signals that a source has produced all the bytes it
// will ever produce. It is the expected completion signal for sized
// reads, not a fault: callers draining a stream should treat it as
// normal termination and must not log it as an error.
var ErrEndOfStream = errors.New("end of stream")

// ErrStreamClosed signals an operation on a stream after Close. This
// is a programmer error and is always surfaced, never swallowed.
var ErrStreamClosed = errors.New("stream is closed")

// ErrNoSuchOrigin signals that the underlying byte origin (a file
// path, typically) does not exist.
var ErrNoSuchOrigin = errors.New("no such origin")

// FilterError wraps an error raised by a filter's Process or Finish,
// distinguishing filter-internal failures from I/O failures of the
// inner stream. I/O errors pass through pipeline layers unwrapped;
// only errors originating in the filter itself carry this type.
type FilterError struct {
	// Cause is the error returned by the filter.
	Cause error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter failed: %v", e.Cause)
}

// Unwrap returns the filter's original error so errors.Is and
// errors.As see through the wrapper.
func (e *FilterError) Unwrap() error {
	return e.Cause
}
