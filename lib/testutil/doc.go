// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for streambox
// packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate
// the timeout safety valve pattern (select with time.After fallback)
// so that individual tests do not need direct time.After calls. They
// are used by the cancellation tests, where a hung channel otherwise
// hangs the whole test run.
//
// [PatternBytes] generates deterministic, position-dependent test
// data so that reordering or duplication bugs in stream plumbing
// surface as content mismatches rather than passing by coincidence.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no streambox-internal dependencies.
package testutil
