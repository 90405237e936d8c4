// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/streambox/lib/boxcipher"
	"github.com/bureau-foundation/streambox/lib/config"
	"github.com/bureau-foundation/streambox/lib/secret"
	"github.com/bureau-foundation/streambox/lib/stream"
	"github.com/bureau-foundation/streambox/lib/streamhash"
	"github.com/bureau-foundation/streambox/lib/streamzip"
)

func runSeal(ctx context.Context, logger *slog.Logger, args []string) error {
	flags := pflag.NewFlagSet("seal", pflag.ContinueOnError)
	configPath := flags.String("config", "", "profile file (default: $"+config.EnvVariable+")")
	keyPath := flags.String("key", "", "hex master key file (\"-\" for stdin)")
	passphrase := flags.Bool("passphrase", false, "derive the master key from a prompted passphrase")
	algorithmName := flags.String("algorithm", "", "box cipher: chacha20poly1305 or aes256gcm")
	boxDataSize := flags.Int("box-size", 0, "plaintext bytes per sealed box")
	segmentSize := flags.Int("segment-size", 0, "buffered I/O chunk size")
	compression := flags.String("compress", "none", "compress before sealing: none, zstd, or lz4")
	outputPath := flags.String("output", "", "sealed output path (default: <input>.sealed)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: streambox seal [flags] <file>")
	}
	inputPath := flags.Arg(0)

	profile, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *keyPath == "" && !*passphrase {
		*keyPath = profile.KeyFile
	}
	if *algorithmName == "" {
		*algorithmName = profile.Algorithm
	}
	if *boxDataSize == 0 {
		*boxDataSize = profile.BoxDataSize
	}
	if *segmentSize == 0 {
		*segmentSize = profile.SegmentSize
	}
	if *outputPath == "" {
		*outputPath = inputPath + ".sealed"
	}

	algorithm, err := boxcipher.ParseAlgorithm(*algorithmName)
	if err != nil {
		return err
	}
	switch *compression {
	case "none", "zstd", "lz4":
	default:
		return fmt.Errorf("unknown compression %q (want none, zstd, or lz4)", *compression)
	}

	salt, err := boxcipher.NewSalt()
	if err != nil {
		return err
	}
	manifest := &Manifest{
		Version:     manifestVersion,
		Algorithm:   algorithm.String(),
		BoxDataSize: *boxDataSize,
		Salt:        salt,
		Compression: *compression,
	}

	masterKey, err := masterKeyForSeal(*keyPath, *passphrase, manifest)
	if err != nil {
		return err
	}
	defer masterKey.Close()

	streamKey, err := boxcipher.DeriveStreamKey(masterKey, salt)
	if err != nil {
		return err
	}
	defer streamKey.Close()

	started := time.Now()
	if err := sealFile(ctx, inputPath, *outputPath, streamKey, algorithm, manifest, *segmentSize); err != nil {
		// A partial sealed file has no valid final box and would
		// never open; remove it rather than leave a trap.
		os.Remove(*outputPath)
		os.Remove(manifestPath(*outputPath))
		return err
	}

	logger.Info("sealed",
		"input", inputPath,
		"output", *outputPath,
		"algorithm", algorithm.String(),
		"compression", *compression,
		"plaintext_bytes", manifest.PlaintextSize,
		"sealed_bytes", manifest.SealedSize,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

// sealFile moves the input through digest, optional compression, and
// sealing into the output file, then records the byte counts and the
// plaintext digest in the manifest and writes the sidecar.
func sealFile(ctx context.Context, inputPath, outputPath string, streamKey *secret.Buffer, algorithm boxcipher.Algorithm, manifest *Manifest, segmentSize int) error {
	fileSource, err := stream.OpenFileSource(inputPath)
	if err != nil {
		return err
	}
	source := stream.NewBufferedSource(fileSource, segmentSize)
	defer source.Close()

	fileSink, err := stream.CreateFileSink(outputPath)
	if err != nil {
		return err
	}

	sealFilter, err := boxcipher.NewSeal(algorithm, streamKey, manifest.BoxDataSize)
	if err != nil {
		fileSink.Close()
		return err
	}

	// Sink stack, innermost out: file, write buffering, sealing,
	// optional compression, then the plaintext digest observer on
	// the outside so it sees the original bytes.
	var sink stream.Sink = stream.NewFilterSink(stream.NewBufferedSink(fileSink, segmentSize), sealFilter)
	switch manifest.Compression {
	case "zstd":
		compressor, err := streamzip.NewZstdCompressor()
		if err != nil {
			fileSink.Close()
			return err
		}
		sink = stream.NewFilterSink(sink, compressor)
	case "lz4":
		sink = stream.NewFilterSink(sink, streamzip.NewLZ4Compressor())
	}
	hashFilter, digest := streamhash.NewSHA256()
	sink = stream.NewFilterSink(sink, hashFilter)

	plaintextBytes, err := stream.Pipe(ctx, source, sink, segmentSize)
	if err != nil {
		sink.Close()
		return fmt.Errorf("sealing %s: %w", inputPath, err)
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("finalizing sealed stream: %w", err)
	}

	manifest.PlaintextSize = plaintextBytes
	manifest.PlaintextSHA256 = digest.Sum()
	manifest.SealedSize = fileSink.BytesWritten()
	return writeManifest(outputPath, manifest)
}
