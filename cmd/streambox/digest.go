// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/streambox/lib/config"
	"github.com/bureau-foundation/streambox/lib/stream"
	"github.com/bureau-foundation/streambox/lib/streamhash"
)

func runDigest(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("digest", pflag.ContinueOnError)
	algorithm := flags.String("algorithm", "sha256", "digest algorithm: sha256 or blake3")
	segmentSize := flags.Int("segment-size", config.DefaultSegmentSize, "buffered I/O chunk size")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("usage: streambox digest [flags] <file>...")
	}

	for _, path := range flags.Args() {
		sum, err := digestFile(ctx, path, *algorithm, *segmentSize)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", hex.EncodeToString(sum), path)
	}
	return nil
}

// digestFile streams the file through a hash observer and discards
// the bytes, returning the finalized digest.
func digestFile(ctx context.Context, path, algorithm string, segmentSize int) ([]byte, error) {
	var hashFilter stream.Filter
	var digest *streamhash.Digest
	switch algorithm {
	case "sha256":
		hashFilter, digest = streamhash.NewSHA256()
	case "blake3":
		hashFilter, digest = streamhash.NewBLAKE3()
	default:
		return nil, fmt.Errorf("unknown digest algorithm %q (want sha256 or blake3)", algorithm)
	}

	fileSource, err := stream.OpenFileSource(path)
	if err != nil {
		return nil, err
	}
	source := stream.NewFilterSource(stream.NewBufferedSource(fileSource, segmentSize), hashFilter)

	for {
		_, err := source.Read(ctx, segmentSize)
		if errors.Is(err, stream.ErrEndOfStream) {
			break
		}
		if err != nil {
			source.Close()
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	if err := source.Close(); err != nil {
		return nil, err
	}
	return digest.Sum(), nil
}
