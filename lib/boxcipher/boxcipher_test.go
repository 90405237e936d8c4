// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boxcipher

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/streambox/lib/secret"
	"github.com/bureau-foundation/streambox/lib/stream"
	"github.com/bureau-foundation/streambox/lib/testutil"
)

func testKey(t *testing.T) *secret.Buffer {
	t.Helper()
	key, err := secret.Random(KeySize)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	t.Cleanup(func() { key.Close() })
	return key
}

// sealAll runs plaintext through a seal filter via a FilterSink,
// returning the full sealed stream. Writes are issued in the given
// chunk size to exercise arbitrary caller boundaries.
func sealAll(t *testing.T, algorithm Algorithm, key *secret.Buffer, boxDataSize int, plaintext []byte, writeChunk int) []byte {
	t.Helper()
	filter, err := NewSeal(algorithm, key, boxDataSize)
	if err != nil {
		t.Fatalf("NewSeal: %v", err)
	}
	inner := stream.NewBytesSink()
	sink := stream.NewFilterSink(inner, filter)
	for offset := 0; offset < len(plaintext); offset += writeChunk {
		end := min(offset+writeChunk, len(plaintext))
		if err := sink.Write(context.Background(), plaintext[offset:end]); err != nil {
			t.Fatalf("sealing write: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("sealing close: %v", err)
	}
	return inner.Bytes()
}

// openAll runs a sealed stream through an open filter via a
// FilterSource, returning the recovered plaintext.
func openAll(t *testing.T, algorithm Algorithm, key *secret.Buffer, boxDataSize int, sealed []byte, readChunk int) ([]byte, error) {
	t.Helper()
	filter, err := NewOpen(algorithm, key, boxDataSize)
	if err != nil {
		t.Fatalf("NewOpen: %v", err)
	}
	source := stream.NewFilterSource(stream.NewBytesSource(sealed), filter)
	defer source.Close()
	var plaintext []byte
	for {
		chunk, err := source.Read(context.Background(), readChunk)
		if errors.Is(err, stream.ErrEndOfStream) {
			return plaintext, nil
		}
		if err != nil {
			return nil, err
		}
		plaintext = append(plaintext, chunk...)
	}
}

// sealedSize is the expected wire size for a plaintext of length
// total sealed with the given box size.
func sealedSize(total, boxDataSize int) int {
	if total == 0 {
		return Overhead
	}
	boxes := (total + boxDataSize - 1) / boxDataSize
	finalData := total - (boxes-1)*boxDataSize
	return (boxes-1)*(boxDataSize+Overhead) + finalData + Overhead
}

func TestRoundtripLengths(t *testing.T) {
	const boxDataSize = 256
	key := testKey(t)

	lengths := []int{
		0,
		1,
		boxDataSize - 1,
		boxDataSize,
		boxDataSize + 1,
		2 * boxDataSize,
		2*boxDataSize + 1,
		10*boxDataSize + 77,
	}
	for _, algorithm := range []Algorithm{ChaCha20Poly1305, AES256GCM} {
		for _, length := range lengths {
			plaintext := testutil.PatternBytes(length)
			sealed := sealAll(t, algorithm, key, boxDataSize, plaintext, 100)

			if len(sealed) != sealedSize(length, boxDataSize) {
				t.Errorf("%v length %d: sealed %d bytes, want %d",
					algorithm, length, len(sealed), sealedSize(length, boxDataSize))
			}

			recovered, err := openAll(t, algorithm, key, boxDataSize, sealed, 333)
			if err != nil {
				t.Fatalf("%v length %d: open: %v", algorithm, length, err)
			}
			if !bytes.Equal(recovered, plaintext) {
				t.Errorf("%v length %d: roundtrip mismatch", algorithm, length)
			}
		}
	}
}

func TestRoundtripArbitraryWriteBoundaries(t *testing.T) {
	const boxDataSize = 1024
	key := testKey(t)
	plaintext := testutil.PatternBytes(10*boxDataSize + 123)

	for _, writeChunk := range []int{1, boxDataSize - 1, boxDataSize, 3*boxDataSize + 7, len(plaintext)} {
		sealed := sealAll(t, ChaCha20Poly1305, key, boxDataSize, plaintext, writeChunk)
		recovered, err := openAll(t, ChaCha20Poly1305, key, boxDataSize, sealed, 4096)
		if err != nil {
			t.Fatalf("write chunk %d: %v", writeChunk, err)
		}
		if !bytes.Equal(recovered, plaintext) {
			t.Errorf("write chunk %d: roundtrip mismatch", writeChunk)
		}
	}
}

func TestEmptyStreamProducesOneFinalBox(t *testing.T) {
	key := testKey(t)
	sealed := sealAll(t, ChaCha20Poly1305, key, 512, nil, 1)
	if len(sealed) != Overhead {
		t.Fatalf("empty stream sealed to %d bytes, want exactly %d (one empty final box)",
			len(sealed), Overhead)
	}
	recovered, err := openAll(t, ChaCha20Poly1305, key, 512, sealed, 64)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(recovered) != 0 {
		t.Errorf("recovered %d bytes from empty stream", len(recovered))
	}
}

func TestSealWithholdsLastFullBox(t *testing.T) {
	const boxDataSize = 128
	key := testKey(t)
	filter, err := NewSeal(ChaCha20Poly1305, key, boxDataSize)
	if err != nil {
		t.Fatalf("NewSeal: %v", err)
	}

	// One full box: nothing can be emitted yet, it might be final.
	out, err := filter.Process(testutil.PatternBytes(boxDataSize))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("one buffered box emitted %d bytes; lookahead violated", len(out))
	}

	// A second full box proves the first is not final.
	out, err = filter.Process(testutil.PatternBytes(boxDataSize))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != boxDataSize+Overhead {
		t.Fatalf("emitted %d bytes, want exactly one sealed box (%d)", len(out), boxDataSize+Overhead)
	}

	// Finish seals the withheld box as the final one.
	trailer, err := filter.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(trailer) != boxDataSize+Overhead {
		t.Fatalf("finish emitted %d bytes, want one full final box (%d)", len(trailer), boxDataSize+Overhead)
	}
}

func TestTamperDetection(t *testing.T) {
	const boxDataSize = 200
	key := testKey(t)
	plaintext := testutil.PatternBytes(3*boxDataSize + 50)
	sealed := sealAll(t, ChaCha20Poly1305, key, boxDataSize, plaintext, 64)

	// Flipping any single byte breaks authentication of its box:
	// hit the nonce, ciphertext body, and tag of various boxes,
	// plus the final box.
	positions := []int{0, NonceSize, boxDataSize, boxDataSize + Overhead + 5, len(sealed) - 1}
	for _, position := range positions {
		tampered := make([]byte, len(sealed))
		copy(tampered, sealed)
		tampered[position] ^= 0x01

		_, err := openAll(t, ChaCha20Poly1305, key, boxDataSize, tampered, 4096)
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("flip at %d: got %v, want ErrAuthentication", position, err)
		}
		var filterError *stream.FilterError
		if !errors.As(err, &filterError) {
			t.Errorf("flip at %d: authentication failure not wrapped as FilterError", position)
		}
	}
}

func TestReplayedBoxFailsAuthentication(t *testing.T) {
	const boxDataSize = 100
	key := testKey(t)
	plaintext := testutil.PatternBytes(5 * boxDataSize)
	sealed := sealAll(t, ChaCha20Poly1305, key, boxDataSize, plaintext, boxDataSize)

	// Swap the first two sealed boxes: each box is valid in
	// isolation but its index AAD no longer matches its position.
	sealedBox := boxDataSize + Overhead
	swapped := make([]byte, len(sealed))
	copy(swapped, sealed)
	copy(swapped[:sealedBox], sealed[sealedBox:2*sealedBox])
	copy(swapped[sealedBox:2*sealedBox], sealed[:sealedBox])

	_, err := openAll(t, ChaCha20Poly1305, key, boxDataSize, swapped, 4096)
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("got %v, want ErrAuthentication for reordered boxes", err)
	}
}

func TestTruncatedStreamFails(t *testing.T) {
	const boxDataSize = 100
	key := testKey(t)
	plaintext := testutil.PatternBytes(5 * boxDataSize)
	sealed := sealAll(t, ChaCha20Poly1305, key, boxDataSize, plaintext, boxDataSize)

	// Cutting the stream anywhere must fail: a clean cut at a box
	// boundary forges an "early end", and the final-flag AAD
	// defends against exactly that.
	for _, keep := range []int{0, Overhead - 1, boxDataSize + Overhead, 2*(boxDataSize+Overhead) + 10} {
		_, err := openAll(t, ChaCha20Poly1305, key, boxDataSize, sealed[:keep], 4096)
		if err == nil {
			t.Fatalf("truncation to %d bytes was not detected", keep)
		}
		if !errors.Is(err, ErrTruncated) && !errors.Is(err, ErrAuthentication) {
			t.Errorf("truncation to %d: got %v, want ErrTruncated or ErrAuthentication", keep, err)
		}
		if errors.Is(err, stream.ErrEndOfStream) {
			t.Errorf("truncation to %d was downgraded to end of stream", keep)
		}
	}
}

func TestWrongKeyFailsAuthentication(t *testing.T) {
	key := testKey(t)
	otherKey := testKey(t)
	sealed := sealAll(t, ChaCha20Poly1305, key, 128, testutil.PatternBytes(500), 100)

	_, err := openAll(t, ChaCha20Poly1305, otherKey, 128, sealed, 4096)
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("got %v, want ErrAuthentication for wrong key", err)
	}
}

func TestAlgorithmMismatchFailsAuthentication(t *testing.T) {
	key := testKey(t)
	sealed := sealAll(t, ChaCha20Poly1305, key, 128, testutil.PatternBytes(500), 100)

	_, err := openAll(t, AES256GCM, key, 128, sealed, 4096)
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("got %v, want ErrAuthentication for algorithm mismatch", err)
	}
}

func TestBoxAADLayout(t *testing.T) {
	// The AAD layout is the cross-implementation integrity
	// contract: 8-byte big-endian index, one flag byte.
	aad := boxAAD(0x0102030405060708, false)
	want := [aadSize]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x00}
	if aad != want {
		t.Errorf("non-final AAD = %x, want %x", aad, want)
	}

	aad = boxAAD(0, true)
	want = [aadSize]byte{0, 0, 0, 0, 0, 0, 0, 0, 0x01}
	if aad != want {
		t.Errorf("final AAD = %x, want %x", aad, want)
	}
}

func TestSealedStreamRoundtripThroughBufferedFile(t *testing.T) {
	// End-to-end shape used by the CLI: buffered source, sealing
	// sink stack, then the symmetric opening stack.
	const boxDataSize = 4096
	key := testKey(t)
	plaintext := testutil.PatternBytes(512*1024 + 3333)

	sealFilter, err := NewSeal(AES256GCM, key, boxDataSize)
	if err != nil {
		t.Fatalf("NewSeal: %v", err)
	}
	sealedSink := stream.NewBytesSink()
	sink := stream.NewBufferedSink(stream.NewFilterSink(sealedSink, sealFilter), 8192)

	source := stream.NewBufferedSource(stream.NewBytesSource(plaintext), 8192)
	if _, err := stream.Pipe(context.Background(), source, sink, 8192); err != nil {
		t.Fatalf("sealing pipe: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("sealing close: %v", err)
	}

	recovered, err := openAll(t, AES256GCM, key, boxDataSize, sealedSink.Bytes(), 8192)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Error("end-to-end roundtrip mismatch")
	}
}

func TestKeySizeValidation(t *testing.T) {
	short, err := secret.Random(16)
	if err != nil {
		t.Fatalf("generating short key: %v", err)
	}
	defer short.Close()

	if _, err := NewSeal(ChaCha20Poly1305, short, 128); err == nil {
		t.Error("expected error for 16-byte key")
	}
	if _, err := NewOpen(AES256GCM, short, 128); err == nil {
		t.Error("expected error for 16-byte key")
	}
}

func TestBoxDataSizeValidation(t *testing.T) {
	key := testKey(t)
	if _, err := NewSeal(ChaCha20Poly1305, key, 0); err == nil {
		t.Error("expected error for zero box size")
	}
	if _, err := NewOpen(ChaCha20Poly1305, key, -1); err == nil {
		t.Error("expected error for negative box size")
	}
}
