// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boxcipher

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/streambox/lib/secret"
	"github.com/bureau-foundation/streambox/lib/stream"
)

const (
	// KeySize is the symmetric key size for both algorithms.
	KeySize = 32

	// NonceSize is the per-box nonce size. Fixed for both
	// algorithms; a fresh random nonce is generated per box and
	// transmitted as the box prefix.
	NonceSize = 12

	// TagSize is the AEAD authentication tag size.
	TagSize = 16

	// Overhead is the total wire overhead per sealed box:
	// nonce + tag. A sealed box is len(plaintext) + Overhead
	// bytes, so an empty final box is exactly Overhead bytes.
	Overhead = NonceSize + TagSize

	// aadSize is the size of the per-box additional authenticated
	// data record: 8-byte big-endian index + 1 flag byte.
	aadSize = 9
)

// ErrAuthentication signals that a box failed AEAD verification:
// tampered ciphertext, a box replayed at the wrong index, a wrong
// key, or a forged final flag. It must never be treated as (or
// downgraded to) normal end of stream.
var ErrAuthentication = errors.New("box authentication failed")

// ErrTruncated signals that the sealed stream ended before a complete
// final box was received. Truncation is an integrity failure: a
// correctly sealed stream always ends with a box carrying the final
// flag.
var ErrTruncated = errors.New("sealed stream truncated")

// boxAAD builds the additional authenticated data for a box: the
// zero-based box index as a big-endian 64-bit integer, then a single
// flag byte, 0x01 for the final box. This is the bit-exact integrity
// contract between seal and open.
func boxAAD(index uint64, final bool) [aadSize]byte {
	var aad [aadSize]byte
	binary.BigEndian.PutUint64(aad[:8], index)
	if final {
		aad[8] = 0x01
	}
	return aad
}

// sealFilter splits a plaintext stream into boxes and seals each one.
type sealFilter struct {
	aead        cipher.AEAD
	boxDataSize int
	input       []byte
	boxIndex    uint64
}

var _ stream.Filter = (*sealFilter)(nil)

// NewSeal creates a filter that seals a plaintext stream into boxes
// of boxDataSize plaintext bytes each (the final box may be shorter,
// down to empty). The key must be KeySize bytes; it is borrowed for
// constructing the cipher and NOT closed by the filter.
//
// The filter is single-use. Interpose it with stream.NewFilterSink
// (sealing while writing) or stream.NewFilterSource (sealing while
// reading).
func NewSeal(algorithm Algorithm, key *secret.Buffer, boxDataSize int) (stream.Filter, error) {
	aead, err := algorithm.newAEAD(key.Bytes())
	if err != nil {
		return nil, err
	}
	if boxDataSize <= 0 {
		return nil, fmt.Errorf("box data size must be positive, got %d", boxDataSize)
	}
	return &sealFilter{aead: aead, boxDataSize: boxDataSize}, nil
}

// Process accumulates plaintext and emits sealed non-final boxes
// while at least two full boxes are buffered. The last full box is
// always withheld: without knowing that more input follows it, the
// filter cannot rule out that it is the final box, which must carry
// the final-flag AAD instead.
func (f *sealFilter) Process(data []byte) ([]byte, error) {
	f.input = append(f.input, data...)
	var output []byte
	for len(f.input) >= 2*f.boxDataSize {
		sealed, err := f.sealBox(f.input[:f.boxDataSize], false)
		if err != nil {
			return nil, err
		}
		output = append(output, sealed...)
		f.input = f.input[f.boxDataSize:]
		f.boxIndex++
	}
	return output, nil
}

// Finish seals whatever remains. At this point the buffer holds less
// than two full boxes. If it holds more than one, the leading full
// box is sealed as non-final first; the remainder (which may be
// empty, partial, or exactly one full box) becomes the final box. A
// zero-length stream therefore still produces exactly one empty final
// box, giving receivers an unambiguous termination signal.
func (f *sealFilter) Finish() ([]byte, error) {
	var output []byte
	if len(f.input) > f.boxDataSize {
		sealed, err := f.sealBox(f.input[:f.boxDataSize], false)
		if err != nil {
			return nil, err
		}
		output = append(output, sealed...)
		f.input = f.input[f.boxDataSize:]
		f.boxIndex++
	}
	sealed, err := f.sealBox(f.input, true)
	if err != nil {
		return nil, err
	}
	output = append(output, sealed...)
	f.input = nil
	return output, nil
}

// sealBox seals one box with a fresh random nonce and the positional
// AAD for the current box index.
func (f *sealFilter) sealBox(plaintext []byte, final bool) ([]byte, error) {
	box := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(rand.Reader, box[:NonceSize]); err != nil {
		return nil, fmt.Errorf("generating box nonce: %w", err)
	}
	aad := boxAAD(f.boxIndex, final)
	return f.aead.Seal(box, box[:NonceSize], plaintext, aad[:]), nil
}

// openFilter verifies and decrypts a sealed box stream.
type openFilter struct {
	aead          cipher.AEAD
	sealedBoxSize int
	input         []byte
	boxIndex      uint64
}

var _ stream.Filter = (*openFilter)(nil)

// NewOpen creates a filter that opens a stream sealed by NewSeal with
// the same algorithm, key, and boxDataSize. boxDataSize is the
// plaintext box size used when sealing; the corresponding sealed box
// occupies boxDataSize + Overhead input bytes.
//
// Boxes are opened strictly in index order. Any verification failure
// (tampering, replay at the wrong position, wrong key) surfaces as
// ErrAuthentication, and a stream that ends without a complete final
// box surfaces ErrTruncated; both arrive wrapped in
// stream.FilterError by the owning pipeline.
func NewOpen(algorithm Algorithm, key *secret.Buffer, boxDataSize int) (stream.Filter, error) {
	aead, err := algorithm.newAEAD(key.Bytes())
	if err != nil {
		return nil, err
	}
	if boxDataSize <= 0 {
		return nil, fmt.Errorf("box data size must be positive, got %d", boxDataSize)
	}
	return &openFilter{aead: aead, sealedBoxSize: boxDataSize + Overhead}, nil
}

// Process accumulates ciphertext and opens non-final boxes with the
// same two-box lookahead as sealing: a box is only opened as
// non-final while a full sealed box is already buffered behind it.
func (f *openFilter) Process(data []byte) ([]byte, error) {
	f.input = append(f.input, data...)
	var output []byte
	for len(f.input) >= 2*f.sealedBoxSize {
		plaintext, err := f.openBox(f.input[:f.sealedBoxSize], false)
		if err != nil {
			return nil, err
		}
		output = append(output, plaintext...)
		f.input = f.input[f.sealedBoxSize:]
		f.boxIndex++
	}
	return output, nil
}

// Finish opens the trailing boxes. The buffer holds less than two
// full sealed boxes; anything beyond one full box means a non-final
// box precedes the final one. The remainder must be a well-formed
// final box: sizes map one-to-one between plaintext and sealed form,
// so a remainder of exactly sealedBoxSize is a full final box, and a
// shorter one is a partial (possibly empty) final box.
func (f *openFilter) Finish() ([]byte, error) {
	var output []byte
	if len(f.input) > f.sealedBoxSize {
		plaintext, err := f.openBox(f.input[:f.sealedBoxSize], false)
		if err != nil {
			return nil, err
		}
		output = append(output, plaintext...)
		f.input = f.input[f.sealedBoxSize:]
		f.boxIndex++
	}
	if len(f.input) < Overhead {
		return nil, fmt.Errorf("stream ended %d bytes into box %d (a final box is at least %d bytes): %w",
			len(f.input), f.boxIndex, Overhead, ErrTruncated)
	}
	plaintext, err := f.openBox(f.input, true)
	if err != nil {
		return nil, err
	}
	f.input = nil
	return append(output, plaintext...), nil
}

// openBox verifies and decrypts one sealed box against the AAD for
// the expected index and final flag.
func (f *openFilter) openBox(box []byte, final bool) ([]byte, error) {
	nonce := box[:NonceSize]
	ciphertext := box[NonceSize:]
	aad := boxAAD(f.boxIndex, final)
	plaintext, err := f.aead.Open(nil, nonce, ciphertext, aad[:])
	if err != nil {
		return nil, fmt.Errorf("box %d (final=%v): %w", f.boxIndex, final, ErrAuthentication)
	}
	return plaintext, nil
}
