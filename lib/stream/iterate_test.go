// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"context"
	"testing"

	"github.com/bureau-foundation/streambox/lib/testutil"
)

func TestExactlyFixedSizeBuffers(t *testing.T) {
	data := testutil.PatternBytes(1000)
	source := NewBytesSource(data)

	var sizes []int
	var rebuilt []byte
	for chunk, err := range Exactly(context.Background(), source, 300) {
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		sizes = append(sizes, len(chunk))
		rebuilt = append(rebuilt, chunk...)
	}

	// 1000 = 3*300 + 100: three full buffers, one short final.
	want := []int{300, 300, 300, 100}
	if len(sizes) != len(want) {
		t.Fatalf("got %d buffers %v, want %v", len(sizes), sizes, want)
	}
	for index := range want {
		if sizes[index] != want[index] {
			t.Errorf("buffer %d: size %d, want %d", index, sizes[index], want[index])
		}
	}
	if !bytes.Equal(rebuilt, data) {
		t.Error("iteration content mismatch")
	}
}

func TestExactlySinglePass(t *testing.T) {
	source := NewBytesSource(testutil.PatternBytes(100))
	sequence := Exactly(context.Background(), source, 40)

	count := 0
	for _, err := range sequence {
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		count++
	}
	if count != 3 {
		t.Fatalf("first pass yielded %d buffers, want 3", count)
	}

	// Re-iterating an exhausted sequence yields nothing.
	for range sequence {
		t.Fatal("exhausted sequence yielded a value")
	}
}

func TestExactlyEarlyBreakStopsSequence(t *testing.T) {
	source := NewBytesSource(testutil.PatternBytes(1000))
	sequence := Exactly(context.Background(), source, 10)

	for range sequence {
		break
	}
	for range sequence {
		t.Fatal("stopped sequence yielded a value")
	}
}

func TestUpToUsesSourceGranularity(t *testing.T) {
	// A dripping source caps every read below max; UpTo surfaces
	// each underlying read as its own buffer.
	source := newDripSource(testutil.PatternBytes(100), 7)

	var rebuilt []byte
	for chunk, err := range UpTo(context.Background(), source, 64) {
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		if len(chunk) > 7 {
			t.Errorf("buffer of %d bytes exceeds the source's drip", len(chunk))
		}
		rebuilt = append(rebuilt, chunk...)
	}
	if !bytes.Equal(rebuilt, testutil.PatternBytes(100)) {
		t.Error("UpTo content mismatch")
	}
}

func TestIterationSurfacesErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := NewBytesSource(testutil.PatternBytes(100))
	sawError := false
	for _, err := range Exactly(ctx, source, 10) {
		if err == nil {
			t.Fatal("expected error from cancelled context")
		}
		sawError = true
	}
	if !sawError {
		t.Error("cancelled iteration ended without surfacing the error")
	}
}
