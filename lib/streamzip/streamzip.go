// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package streamzip provides compression and decompression filters
// for stream pipelines, backed by zstd (github.com/klauspost/compress)
// and lz4 (github.com/pierrec/lz4).
//
// Compression engines are push-style: they accept input incrementally,
// emit output when internal blocks fill, and produce trailing output
// only on an explicit finalize. The filters adapt this to the
// stream.Filter contract by collecting emitted output between Process
// calls — a Process call may legitimately return no output while the
// engine is still accumulating a block.
package streamzip

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/streambox/lib/stream"
)

// compressor adapts a push-style compression engine (write input,
// output lands in collected, explicit Close emits the trailer) to the
// Filter contract.
type compressor struct {
	engine    io.WriteCloser
	collected *bytes.Buffer
}

var _ stream.Filter = (*compressor)(nil)

func (c *compressor) Process(data []byte) ([]byte, error) {
	if _, err := c.engine.Write(data); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return c.drain(), nil
}

func (c *compressor) Finish() ([]byte, error) {
	if err := c.engine.Close(); err != nil {
		return nil, fmt.Errorf("compress finalize: %w", err)
	}
	return c.drain(), nil
}

// drain takes everything the engine has emitted since the last call.
func (c *compressor) drain() []byte {
	if c.collected.Len() == 0 {
		return nil
	}
	out := make([]byte, c.collected.Len())
	copy(out, c.collected.Bytes())
	c.collected.Reset()
	return out
}

// NewZstdCompressor creates a zstd compression filter at the default
// speed/ratio tradeoff (level 3).
func NewZstdCompressor() (stream.Filter, error) {
	collected := &bytes.Buffer{}
	engine, err := zstd.NewWriter(collected, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder initialization: %w", err)
	}
	return &compressor{engine: engine, collected: collected}, nil
}

// NewLZ4Compressor creates an lz4 frame compression filter.
func NewLZ4Compressor() stream.Filter {
	collected := &bytes.Buffer{}
	return &compressor{engine: lz4.NewWriter(collected), collected: collected}
}

// decompressor adapts a pull-style decompression engine to the push
// Filter contract: Process feeds ciphertext into a pipe consumed by a
// collector goroutine running the engine, and returns whatever
// plaintext the collector has produced so far. Finish closes the pipe
// (signaling end of input to the engine) and returns the trailing
// plaintext.
type decompressor struct {
	pipe *io.PipeWriter
	done chan struct{}

	mu        sync.Mutex
	collected bytes.Buffer
	// engineErr is set by the collector goroutine before done is
	// closed. A truncated or corrupt input surfaces here.
	engineErr error
}

var _ stream.Filter = (*decompressor)(nil)

// newDecompressor starts the collector goroutine. open constructs the
// engine over the pipe's read end; cleanup (optional) releases engine
// resources once copying ends.
func newDecompressor(open func(io.Reader) (io.Reader, func(), error)) *decompressor {
	pipeReader, pipeWriter := io.Pipe()
	d := &decompressor{
		pipe: pipeWriter,
		done: make(chan struct{}),
	}
	go func() {
		defer close(d.done)
		engine, cleanup, err := open(pipeReader)
		if err != nil {
			d.engineErr = err
			pipeReader.CloseWithError(err)
			return
		}
		if cleanup != nil {
			defer cleanup()
		}
		_, err = io.Copy(collectorWriter{d}, engine)
		if err != nil {
			d.engineErr = err
			// Unblock any Process call waiting in pipe.Write.
			pipeReader.CloseWithError(err)
			return
		}
		// A complete compressed stream accounts for every input
		// byte; anything after it is corruption, not padding.
		// This read also unblocks a Process call stuck writing
		// bytes the engine never asked for.
		extra := make([]byte, 1)
		if n, _ := pipeReader.Read(extra); n > 0 {
			err := errors.New("trailing data after compressed stream")
			d.engineErr = err
			pipeReader.CloseWithError(err)
		}
	}()
	return d
}

// collectorWriter appends engine output to the shared buffer under
// the lock, since the collector goroutine runs concurrently with
// Process.
type collectorWriter struct {
	d *decompressor
}

func (w collectorWriter) Write(data []byte) (int, error) {
	w.d.mu.Lock()
	defer w.d.mu.Unlock()
	return w.d.collected.Write(data)
}

func (d *decompressor) Process(data []byte) ([]byte, error) {
	if _, err := d.pipe.Write(data); err != nil {
		if d.engineErr != nil {
			return nil, fmt.Errorf("decompress: %w", d.engineErr)
		}
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return d.drain(), nil
}

func (d *decompressor) Finish() ([]byte, error) {
	d.pipe.Close()
	<-d.done
	if d.engineErr != nil {
		return nil, fmt.Errorf("decompress finalize: %w", d.engineErr)
	}
	return d.drain(), nil
}

func (d *decompressor) drain() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.collected.Len() == 0 {
		return nil
	}
	out := make([]byte, d.collected.Len())
	copy(out, d.collected.Bytes())
	d.collected.Reset()
	return out
}

// NewZstdDecompressor creates a filter that decompresses a zstd
// stream produced by NewZstdCompressor.
func NewZstdDecompressor() stream.Filter {
	return newDecompressor(func(r io.Reader) (io.Reader, func(), error) {
		engine, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd decoder initialization: %w", err)
		}
		return engine.IOReadCloser(), engine.Close, nil
	})
}

// NewLZ4Decompressor creates a filter that decompresses an lz4 frame
// stream produced by NewLZ4Compressor.
func NewLZ4Decompressor() stream.Filter {
	return newDecompressor(func(r io.Reader) (io.Reader, func(), error) {
		return lz4.NewReader(r), nil, nil
	})
}
