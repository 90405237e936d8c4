// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/streambox/lib/boxcipher"
	"github.com/bureau-foundation/streambox/lib/config"
	"github.com/bureau-foundation/streambox/lib/secret"
	"github.com/bureau-foundation/streambox/lib/stream"
	"github.com/bureau-foundation/streambox/lib/streamhash"
	"github.com/bureau-foundation/streambox/lib/streamzip"
)

func runOpen(ctx context.Context, logger *slog.Logger, args []string) error {
	flags := pflag.NewFlagSet("open", pflag.ContinueOnError)
	configPath := flags.String("config", "", "profile file (default: $"+config.EnvVariable+")")
	keyPath := flags.String("key", "", "hex master key file (\"-\" for stdin)")
	segmentSize := flags.Int("segment-size", 0, "buffered I/O chunk size")
	outputPath := flags.String("output", "", "plaintext output path (default: <input> minus .sealed)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: streambox open [flags] <file.sealed>")
	}
	inputPath := flags.Arg(0)

	profile, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *keyPath == "" {
		*keyPath = profile.KeyFile
	}
	if *segmentSize == 0 {
		*segmentSize = profile.SegmentSize
	}
	if *outputPath == "" {
		trimmed := strings.TrimSuffix(inputPath, ".sealed")
		if trimmed == inputPath {
			return fmt.Errorf("input has no .sealed suffix: --output is required")
		}
		*outputPath = trimmed
	}

	manifest, err := readManifest(inputPath)
	if err != nil {
		return err
	}
	algorithm, err := boxcipher.ParseAlgorithm(manifest.Algorithm)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	masterKey, err := masterKeyForOpen(*keyPath, manifest)
	if err != nil {
		return err
	}
	defer masterKey.Close()

	streamKey, err := boxcipher.DeriveStreamKey(masterKey, manifest.Salt)
	if err != nil {
		return err
	}
	defer streamKey.Close()

	started := time.Now()
	if err := openFile(ctx, inputPath, *outputPath, streamKey, algorithm, manifest, *segmentSize); err != nil {
		// Anything already written is unverified plaintext from a
		// stream that failed authentication or digest checking.
		os.Remove(*outputPath)
		return err
	}

	logger.Info("opened",
		"input", inputPath,
		"output", *outputPath,
		"plaintext_bytes", manifest.PlaintextSize,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

// openFile reverses the sealing pipeline: opening, optional
// decompression, and a digest observer over the recovered plaintext,
// verified against the manifest after the stream completes.
func openFile(ctx context.Context, inputPath, outputPath string, streamKey *secret.Buffer, algorithm boxcipher.Algorithm, manifest *Manifest, segmentSize int) error {
	fileSource, err := stream.OpenFileSource(inputPath)
	if err != nil {
		return err
	}

	openFilter, err := boxcipher.NewOpen(algorithm, streamKey, manifest.BoxDataSize)
	if err != nil {
		fileSource.Close()
		return err
	}

	// Source stack, innermost out: file, read buffering, opening,
	// optional decompression, then the digest observer over the
	// recovered plaintext.
	var source stream.Source = stream.NewFilterSource(
		stream.NewBufferedSource(fileSource, segmentSize), openFilter)
	switch manifest.Compression {
	case "zstd":
		source = stream.NewFilterSource(source, streamzip.NewZstdDecompressor())
	case "lz4":
		source = stream.NewFilterSource(source, streamzip.NewLZ4Decompressor())
	case "none", "":
	default:
		fileSource.Close()
		return fmt.Errorf("manifest: unknown compression %q", manifest.Compression)
	}
	hashFilter, digest := streamhash.NewSHA256()
	source = stream.NewFilterSource(source, hashFilter)
	defer source.Close()

	sink, err := stream.CreateFileSink(outputPath)
	if err != nil {
		return err
	}
	buffered := stream.NewBufferedSink(sink, segmentSize)

	plaintextBytes, err := stream.Pipe(ctx, source, buffered, segmentSize)
	if err != nil {
		buffered.Close()
		return fmt.Errorf("opening %s: %w", inputPath, err)
	}
	if err := buffered.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	if plaintextBytes != manifest.PlaintextSize {
		return fmt.Errorf("recovered %d bytes, manifest expects %d", plaintextBytes, manifest.PlaintextSize)
	}
	if subtle.ConstantTimeCompare(digest.Sum(), manifest.PlaintextSHA256) != 1 {
		return fmt.Errorf("recovered plaintext digest does not match manifest")
	}
	return nil
}
