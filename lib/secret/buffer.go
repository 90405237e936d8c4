// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds key material in memory that is locked against
// swapping, excluded from core dumps, and zeroed on close. The
// backing memory is allocated via mmap outside the Go heap.
//
// A Buffer must not be copied after creation. Use Close to release
// the memory when the key is no longer needed. After Close, any
// access to the buffer's contents panics.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	length int
	closed bool
}

// New allocates a zero-filled buffer of the given size. The buffer is
// backed by an anonymous mmap region that is:
//   - Locked into physical RAM (mlock), preventing swap
//   - Excluded from core dumps (MADV_DONTDUMP)
//   - Outside the Go heap, invisible to the garbage collector
//
// The caller must call Close when the key is no longer needed.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}

	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock failed: %w", err)
	}

	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(data)
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP) failed: %w", err)
	}

	return &Buffer{
		data:   data,
		length: size,
	}, nil
}

// NewFromBytes creates a buffer from existing data. The source bytes
// are copied into the protected region and then zeroed in place, so
// the caller's original slice no longer holds the key.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}

	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}

	copy(buffer.data, source)
	Zero(source)

	return buffer, nil
}

// Random creates a buffer of the given size filled from crypto/rand.
func Random(size int) (*Buffer, error) {
	buffer, err := New(size)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(rand.Reader, buffer.data[:buffer.length]); err != nil {
		buffer.Close()
		return nil, fmt.Errorf("secret: reading random bytes: %w", err)
	}
	return buffer, nil
}

// Bytes returns the key material. The returned slice points directly
// into the mmap region — do not hold references to it beyond the
// lifetime of the Buffer. Panics if the buffer has been closed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}

	return b.data[:b.length]
}

// Hex returns the key material hex-encoded. The returned string is a
// heap allocation (Go strings are immutable), so use this only at API
// boundaries such as printing a generated key. Panics if the buffer
// has been closed.
func (b *Buffer) Hex() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}

	return hex.EncodeToString(b.data[:b.length])
}

// Len returns the size of the key material.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.length
}

// Close zeros the buffer contents, unlocks and unmaps the memory.
// After Close, any access to the buffer's contents panics. Close is
// idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.data)

	// Unlock and unmap. The memory is released when the process
	// exits regardless, so the first error is reported but does
	// not abort the remaining cleanup.
	var firstError error
	if err := unix.Munlock(b.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munlock failed: %w", err)
	}
	if err := unix.Munmap(b.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munmap failed: %w", err)
	}

	b.data = nil
	return firstError
}

// Zero overwrites data with zero bytes. Use it to scrub heap slices
// that briefly held key material before it reached a Buffer.
func Zero(data []byte) {
	for index := range data {
		data[index] = 0
	}
}
