// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/streambox/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	// Sealing a multi-gigabyte file should die cleanly on Ctrl-C:
	// the pipeline checks the context between segments, so no
	// partially written box is ever mistaken for a complete stream.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	subcommand := os.Args[1]
	switch subcommand {
	case "seal":
		return runSeal(ctx, logger, os.Args[2:])
	case "open":
		return runOpen(ctx, logger, os.Args[2:])
	case "digest":
		return runDigest(ctx, os.Args[2:])
	case "keygen":
		return runKeygen(os.Args[2:])
	case "version":
		fmt.Printf("streambox %s\n", version.Info())
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: streambox <subcommand> [flags]

Subcommands:
  seal      Seal a file into an authenticated box stream
  open      Open a sealed file and verify its digest
  digest    Print the digest of a file
  keygen    Generate or derive a master key
  version   Print version information

Run 'streambox <subcommand> --help' for subcommand flags.
`)
}
