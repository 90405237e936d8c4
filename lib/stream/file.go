// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileSource reads a file through positional pread calls issued on a
// helper goroutine and bridged back through a one-shot result
// channel, so a blocked read can be abandoned when the context is
// cancelled. The file offset lives in the FileSource, not the kernel
// file description: it advances only for bytes actually delivered to
// the caller, so a cancelled in-flight read costs nothing and the
// next read resumes from the last delivered byte.
type FileSource struct {
	file      *os.File
	offset    int64
	bytesRead int64
	closed    bool
}

var _ Source = (*FileSource)(nil)

// OpenFileSource opens path for reading. A missing file surfaces
// ErrNoSuchOrigin.
func OpenFileSource(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", path, ErrNoSuchOrigin)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &FileSource{file: file}, nil
}

type preadResult struct {
	data []byte
	err  error
}

func (s *FileSource) Read(ctx context.Context, max int) ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		return nil, fmt.Errorf("read size must be positive, got %d", max)
	}

	// The result channel is buffered so the goroutine can complete
	// and exit even when the caller has already gone away.
	result := make(chan preadResult, 1)
	descriptor := int(s.file.Fd())
	offset := s.offset
	go func() {
		buffer := make([]byte, max)
		n, err := unix.Pread(descriptor, buffer, offset)
		if err != nil {
			result <- preadResult{err: fmt.Errorf("pread at offset %d: %w", offset, err)}
			return
		}
		result <- preadResult{data: buffer[:n]}
	}()

	select {
	case <-ctx.Done():
		// The pread may still complete in the background; its
		// result is discarded and the offset stays put, so the
		// next uncancelled read re-fetches the same range.
		return nil, ctx.Err()
	case r := <-result:
		if r.err != nil {
			return nil, r.err
		}
		if len(r.data) == 0 {
			return nil, ErrEndOfStream
		}
		s.offset += int64(len(r.data))
		s.bytesRead += int64(len(r.data))
		return r.data, nil
	}
}

func (s *FileSource) BytesRead() int64 {
	return s.bytesRead
}

func (s *FileSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// FileSink writes a file through positional pwrite calls with the
// same goroutine bridge and cancellation behavior as FileSource: a
// cancelled write advances neither the offset nor BytesWritten, and
// the next uncancelled write overwrites from the resume point.
type FileSink struct {
	file         *os.File
	offset       int64
	bytesWritten int64
	closed       bool
}

var _ Sink = (*FileSink)(nil)

// CreateFileSink creates (or truncates) path for writing.
func CreateFileSink(path string) (*FileSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &FileSink{file: file}, nil
}

func (s *FileSink) Write(ctx context.Context, data []byte) error {
	if s.closed {
		return ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	result := make(chan error, 1)
	descriptor := int(s.file.Fd())
	offset := s.offset
	go func() {
		written := 0
		for written < len(data) {
			n, err := unix.Pwrite(descriptor, data[written:], offset+int64(written))
			if err != nil {
				result <- fmt.Errorf("pwrite at offset %d: %w", offset+int64(written), err)
				return
			}
			written += n
		}
		result <- nil
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-result:
		if err != nil {
			return err
		}
		s.offset += int64(len(data))
		s.bytesWritten += int64(len(data))
		return nil
	}
}

func (s *FileSink) BytesWritten() int64 {
	return s.bytesWritten
}

func (s *FileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
