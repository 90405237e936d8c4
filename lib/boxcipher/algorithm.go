// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boxcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm selects the AEAD primitive used to seal and open boxes.
// Both supported algorithms use a 12-byte nonce and a 16-byte tag, so
// the wire overhead per box is identical.
type Algorithm uint8

const (
	// ChaCha20Poly1305 is the default algorithm: fast everywhere,
	// constant-time without hardware support.
	ChaCha20Poly1305 Algorithm = 1

	// AES256GCM is AES-256 in Galois/Counter Mode. Prefer it only
	// on hardware with AES instructions.
	AES256GCM Algorithm = 2
)

// String returns the canonical name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case ChaCha20Poly1305:
		return "chacha20poly1305"
	case AES256GCM:
		return "aes256gcm"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm parses an algorithm from its canonical name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "chacha20poly1305":
		return ChaCha20Poly1305, nil
	case "aes256gcm":
		return AES256GCM, nil
	default:
		return 0, fmt.Errorf("unknown box cipher algorithm: %q", name)
	}
}

// newAEAD constructs the AEAD primitive for the algorithm. The key
// must be exactly KeySize bytes.
func (a Algorithm) newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("box cipher key must be %d bytes, got %d", KeySize, len(key))
	}
	switch a {
	case ChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("creating ChaCha20-Poly1305 cipher: %w", err)
		}
		return aead, nil
	case AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("creating AES-256 cipher: %w", err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("creating GCM mode: %w", err)
		}
		return aead, nil
	default:
		return nil, fmt.Errorf("unknown box cipher algorithm: %d", uint8(a))
	}
}
