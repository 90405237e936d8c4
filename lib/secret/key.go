// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
)

// FromHex decodes a hex-encoded key into a protected buffer. The
// source string is not scrubbed (Go strings are immutable); prefer
// ReadFromPath or NewFromBytes when the caller controls the memory.
func FromHex(encoded string) (*Buffer, error) {
	decoded, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("secret: decoding hex key: %w", err)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("secret: hex key is empty")
	}
	// NewFromBytes zeros the decoded heap copy.
	return NewFromBytes(decoded)
}

// ReadFromPath reads a hex-encoded key from a file path, or from
// stdin if path is "-". Leading and trailing whitespace is trimmed
// before decoding. The returned buffer must be closed by the caller.
func ReadFromPath(path string) (*Buffer, error) {
	var data []byte

	if path == "-" {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("secret: reading stdin: %w", err)
			}
			return nil, fmt.Errorf("secret: stdin is empty")
		}
		data = scanner.Bytes()
	} else {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret: key file is empty")
	}

	decoded := make([]byte, hex.DecodedLen(len(trimmed)))
	n, err := hex.Decode(decoded, trimmed)
	Zero(data)
	if err != nil {
		return nil, fmt.Errorf("secret: decoding hex key: %w", err)
	}

	// NewFromBytes copies into mmap-guarded memory and zeros the
	// heap copy.
	return NewFromBytes(decoded[:n])
}
