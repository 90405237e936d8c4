// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boxcipher

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/bureau-foundation/streambox/lib/secret"
)

// SaltSize is the size of the random salt used by DeriveStreamKey.
const SaltSize = 16

// hkdfInfoStreamKey is the HKDF domain-separation string for
// per-stream key derivation. Changing it invalidates every stream
// sealed under a derived key.
var hkdfInfoStreamKey = []byte("bureau.streambox.stream.key.v1")

// NewSalt generates a random salt for DeriveStreamKey. The salt is
// not secret: store or transmit it alongside the sealed stream.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// DeriveStreamKey derives a fresh per-stream sealing key from a
// long-lived master key and a salt via HKDF-SHA256. Sealing each
// stream under its own derived key keeps nonce collisions across
// streams harmless and limits the blast radius of any single stream
// key.
//
// The masterKey is borrowed (read via Bytes) and NOT closed. The
// returned buffer must be closed by the caller.
func DeriveStreamKey(masterKey *secret.Buffer, salt []byte) (*secret.Buffer, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("salt must not be empty")
	}
	reader := hkdf.New(sha256.New, masterKey.Bytes(), salt, hkdfInfoStreamKey)
	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	// NewFromBytes copies into mmap-guarded memory and zeros the
	// heap slice.
	return secret.NewFromBytes(derived)
}
