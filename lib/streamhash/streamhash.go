// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package streamhash provides observing filters that feed a running
// digest while passing the stream through unchanged. Interpose one
// with stream.NewFilterSource or stream.NewFilterSink to fingerprint
// data as it flows, on either side of a pipeline.
//
// The digest is exposed through a side-channel [Digest] handle rather
// than through the stream itself. It becomes valid only once the
// owning stream has been closed (write side) or drained to end of
// stream (read side); reading it earlier is a usage error the caller
// must avoid, not a runtime-checked condition.
package streamhash

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/streambox/lib/stream"
)

// Digest is the side-channel result of an observing filter. Sum
// returns the finalized digest; it is valid only after the owning
// stream has closed.
type Digest struct {
	sum []byte
}

// Sum returns the finalized digest bytes, or nil if the owning
// stream has not finished yet.
func (d *Digest) Sum() []byte {
	return d.sum
}

// observer feeds every processed byte into an incremental hash and
// returns the data unchanged.
type observer struct {
	hash   hash.Hash
	digest *Digest
}

var _ stream.Filter = (*observer)(nil)

func (o *observer) Process(data []byte) ([]byte, error) {
	// hash.Hash.Write never returns an error.
	o.hash.Write(data)
	return data, nil
}

func (o *observer) Finish() ([]byte, error) {
	o.digest.sum = o.hash.Sum(nil)
	return nil, nil
}

// New creates an observing filter over any incremental hash. The
// returned Digest is the side channel through which the finalized
// digest is read after the owning stream closes.
func New(h hash.Hash) (stream.Filter, *Digest) {
	digest := &Digest{}
	return &observer{hash: h, digest: digest}, digest
}

// NewSHA256 creates a SHA-256 observing filter.
func NewSHA256() (stream.Filter, *Digest) {
	return New(sha256.New())
}

// NewBLAKE3 creates a BLAKE3 observing filter.
func NewBLAKE3() (stream.Filter, *Digest) {
	return New(blake3.New())
}

// NewHMACSHA256 creates an HMAC-SHA256 observing filter. Any key
// length is accepted, per HMAC.
func NewHMACSHA256(key []byte) (stream.Filter, *Digest) {
	return New(hmac.New(sha256.New, key))
}

// NewKeyedBLAKE3 creates a keyed BLAKE3 observing filter. The key
// must be exactly 32 bytes.
func NewKeyedBLAKE3(key []byte) (stream.Filter, *Digest, error) {
	hasher, err := blake3.NewKeyed(key)
	if err != nil {
		return nil, nil, fmt.Errorf("keyed BLAKE3 initialization (key must be 32 bytes): %w", err)
	}
	filter, digest := New(hasher)
	return filter, digest, nil
}
