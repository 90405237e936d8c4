// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/streambox/lib/codec"
)

// manifestVersion is the current manifest format version. Opening
// rejects manifests from a newer format rather than guessing.
const manifestVersion = 1

// Manifest is the sidecar written next to a sealed file. It carries
// everything needed to open the stream except the master key: the
// cipher parameters, the key-derivation inputs, and the expected
// plaintext digest. The manifest is not secret and not authenticated —
// integrity comes from the sealed stream itself, and a manifest
// tampered to change any parameter makes authentication fail.
type Manifest struct {
	// Version is the manifest format version.
	Version int `cbor:"version"`

	// Algorithm is the box cipher algorithm name.
	Algorithm string `cbor:"algorithm"`

	// BoxDataSize is the plaintext bytes per sealed box.
	BoxDataSize int `cbor:"box_data_size"`

	// Salt is the HKDF salt for per-stream key derivation.
	Salt []byte `cbor:"salt"`

	// KDF names how the master key is obtained: "key" for a raw
	// key file, "scrypt" for a passphrase-derived key.
	KDF string `cbor:"kdf"`

	// ScryptSalt and the cost parameters are set when KDF is
	// "scrypt", so open can re-derive the master key from the
	// passphrase alone.
	ScryptSalt []byte `cbor:"scrypt_salt,omitempty"`
	ScryptN    int    `cbor:"scrypt_n,omitempty"`
	ScryptR    int    `cbor:"scrypt_r,omitempty"`
	ScryptP    int    `cbor:"scrypt_p,omitempty"`

	// Compression names the compression applied before sealing:
	// "none", "zstd", or "lz4".
	Compression string `cbor:"compression"`

	// PlaintextSize is the original file size in bytes.
	PlaintextSize int64 `cbor:"plaintext_size"`

	// PlaintextSHA256 is the SHA-256 of the original file, verified
	// after opening.
	PlaintextSHA256 []byte `cbor:"plaintext_sha256"`

	// SealedSize is the sealed stream size in bytes.
	SealedSize int64 `cbor:"sealed_size"`
}

// manifestPath derives the sidecar path from the sealed file path.
func manifestPath(sealedPath string) string {
	return sealedPath + ".manifest"
}

// writeManifest encodes the manifest as deterministic CBOR beside the
// sealed file.
func writeManifest(sealedPath string, manifest *Manifest) error {
	data, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	path := manifestPath(sealedPath)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// readManifest loads and validates the sidecar for a sealed file.
func readManifest(sealedPath string) (*Manifest, error) {
	path := manifestPath(sealedPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if manifest.Version > manifestVersion {
		return nil, fmt.Errorf("manifest %s has format version %d, this build understands up to %d",
			path, manifest.Version, manifestVersion)
	}
	if manifest.BoxDataSize <= 0 {
		return nil, fmt.Errorf("manifest %s: box_data_size must be positive, got %d", path, manifest.BoxDataSize)
	}
	if len(manifest.Salt) == 0 {
		return nil, fmt.Errorf("manifest %s: missing key derivation salt", path)
	}
	return &manifest, nil
}
