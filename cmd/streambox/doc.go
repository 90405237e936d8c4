// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// streambox seals, opens, and fingerprints byte streams.
//
// A sealed stream is a sequence of fixed-size AEAD boxes, each bound
// to its position and to an end-of-stream marker, so tampering,
// reordering, and truncation are all detected on open. Each stream is
// sealed under a fresh key derived from the master key and a random
// salt; the salt and the stream parameters travel in a CBOR manifest
// sidecar next to the sealed file.
//
// Subcommands:
//
//	seal     Seal a file (optionally compressing first)
//	open     Open a sealed file and verify its digest
//	digest   Print the SHA-256 or BLAKE3 digest of a file
//	keygen   Generate or derive a master key
//	version  Print version information
//
// The master key comes from a hex key file (--key, "-" for stdin) or
// from a passphrase prompt (--passphrase, scrypt-derived). Defaults
// for algorithm, box size, and segment size can be set in a YAML
// profile named by --config or $STREAMBOX_CONFIG.
package main
