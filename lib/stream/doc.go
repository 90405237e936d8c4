// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream provides composable asynchronous byte streams:
// producers ([Source]), consumers ([Sink]), and in-line stateful
// transforms ([Filter]) that can be stacked to add buffering, hashing,
// compression, or chunked authenticated encryption to any byte flow.
//
// A pipeline is built leaf to root: a Source is optionally wrapped in
// a [BufferedSource], then zero or more [FilterSource] layers, and is
// drained either directly or through [Exactly]/[UpTo] iteration. The
// write side is symmetric with [Sink], [BufferedSink], and
// [FilterSink]. Every layer preserves the same contract: reads signal
// [ErrEndOfStream] only at true end of stream (never an empty
// intermediate result), writes are all-or-error, and Close is
// idempotent and closes the owned inner stream exactly once.
//
// Streams are not safe for concurrent use. Each instance assumes one
// logical operation in flight at a time; callers needing concurrency
// must serialize externally. Cancellation via context aborts only the
// in-flight operation: the stream remains valid and a subsequent call
// continues from the last successfully delivered byte, with
// BytesRead/BytesWritten counting only delivered bytes.
//
// Filters live in their own packages: lib/boxcipher (chunked AEAD
// framing), lib/streamhash (digest observation), lib/streamzip
// (compression). Depends on golang.org/x/sys/unix for positional file
// I/O. No Bureau-internal dependencies.
package stream
