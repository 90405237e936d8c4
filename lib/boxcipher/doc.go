// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boxcipher turns a single symmetric key into a sequence of
// independently authenticated, strictly ordered ciphertext boxes.
//
// A byte stream is split into fixed-size plaintext boxes (the last
// box may be shorter, down to empty) and each box is sealed with an
// AEAD whose additional authenticated data binds the box's zero-based
// index and a final-box flag. Because every box authenticates its own
// position and the final box is marked as such, a receiver can
// decrypt incrementally up to the last fully received box, and
// tampering, reordering, replay, and truncation are all detectable
// per box rather than only at stream end.
//
// The wire layout of a sealed box is:
//
//	[nonce: 12 bytes] [ciphertext: len(plaintext) bytes] [tag: 16 bytes]
//
// so every box except possibly the last occupies boxDataSize +
// [Overhead] bytes. The AAD is a fixed 9-byte record: the box index
// as a big-endian 64-bit integer followed by one flag byte (0x01 for
// the final box, 0x00 otherwise). This layout is the integrity
// contract between sealers and openers and must be reproduced
// bit-exactly by any other implementation.
//
// [NewSeal] and [NewOpen] construct stream.Filter values for use with
// stream.FilterSink and stream.FilterSource. Like all filters they
// are single-use and bound to one pipeline. The seal filter withholds
// one full box of lookahead so it never has to guess whether a box is
// final: a box is only sealed as non-final while at least one more
// full box of input is already buffered behind it.
//
// Keys are 32 bytes held in secret.Buffer guarded memory. For sealing
// many streams under one long-lived key, [DeriveStreamKey] derives a
// fresh per-stream key from a master key and a random salt via
// HKDF-SHA256 with a versioned domain-separation string.
package boxcipher
