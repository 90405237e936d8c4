// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

// PatternBytes returns n bytes of deterministic, position-dependent
// data. Every offset has a distinct neighborhood, so stream plumbing
// that reorders, drops, or duplicates bytes produces a content
// mismatch instead of accidentally passing.
func PatternBytes(n int) []byte {
	data := make([]byte, n)
	for index := range data {
		data[index] = byte(index*31 + index>>8*17 + 7)
	}
	return data
}
