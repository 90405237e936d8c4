// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for key material.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory lives
// outside the Go heap, the garbage collector cannot copy or relocate
// it, guaranteeing key material does not persist after release.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [Random] -- fills a new buffer from crypto/rand
//   - [FromHex] -- decodes a hex-encoded key
//   - [ReadFromPath] -- reads a hex key from a file or stdin
//
// Access via [Buffer.Bytes] (slice into the mmap region) or
// [Buffer.Hex] (heap copy for display at API boundaries). After
// Close, any access panics. Close is idempotent.
//
// Depends on golang.org/x/sys/unix. Imported by lib/boxcipher for
// sealing keys and by cmd/streambox for key intake.
package secret
