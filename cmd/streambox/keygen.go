// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/streambox/lib/boxcipher"
	"github.com/bureau-foundation/streambox/lib/secret"
)

func runKeygen(args []string) error {
	flags := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	outputPath := flags.String("output", "", "write the hex key to this file (0600) instead of stdout")
	passphrase := flags.Bool("passphrase", false, "derive the key from a prompted passphrase instead of random")
	saltHex := flags.String("salt", "", "hex scrypt salt for --passphrase (random if omitted)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 0 {
		return fmt.Errorf("usage: streambox keygen [flags]")
	}

	var key *secret.Buffer
	var err error
	if *passphrase {
		key, err = passphraseKey(*saltHex)
	} else {
		key, err = secret.Random(boxcipher.KeySize)
	}
	if err != nil {
		return err
	}
	defer key.Close()

	if *outputPath == "" {
		fmt.Println(key.Hex())
		return nil
	}
	if err := os.WriteFile(*outputPath, []byte(key.Hex()+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing key file %s: %w", *outputPath, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", *outputPath)
	return nil
}

// passphraseKey derives a reproducible master key from a passphrase.
// With an explicit salt the same passphrase yields the same key;
// otherwise a fresh salt is generated and printed so the derivation
// can be repeated.
func passphraseKey(saltHex string) (*secret.Buffer, error) {
	var salt []byte
	var err error
	if saltHex != "" {
		salt, err = hex.DecodeString(saltHex)
		if err != nil {
			return nil, fmt.Errorf("parsing --salt: %w", err)
		}
		if len(salt) == 0 {
			return nil, fmt.Errorf("--salt must not be empty")
		}
	} else {
		salt, err = newScryptSalt()
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "salt: %s (needed to re-derive this key)\n", hex.EncodeToString(salt))
	}

	entered, err := promptPassphrase(true)
	if err != nil {
		return nil, err
	}
	return scryptMasterKey(entered, salt, scryptN, scryptR, scryptP)
}
