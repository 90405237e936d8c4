// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/term"

	"github.com/bureau-foundation/streambox/lib/boxcipher"
	"github.com/bureau-foundation/streambox/lib/secret"
)

// scrypt cost parameters for passphrase-derived keys. N=2^17 with
// r=8 needs 128 MiB of memory and well under a second on current
// hardware; open re-reads the actual parameters from the manifest, so
// these only set the cost for newly sealed streams.
const (
	scryptN        = 1 << 17
	scryptR        = 8
	scryptP        = 1
	scryptSaltSize = 16
)

// Upper bounds for scrypt parameters read back from a manifest. The
// manifest is untrusted input: without a cap, a hostile sidecar could
// demand an arbitrarily expensive derivation (memory use is roughly
// 128·N·r bytes) before the stream is ever authenticated.
const (
	scryptMaxN      = 1 << 22
	scryptMaxR      = 32
	scryptMaxP      = 16
	scryptMaxMemory = 2 << 30
)

// validateScryptParameters rejects parameters outside the bounds a
// legitimate sealer would ever write.
func validateScryptParameters(n, r, p int) error {
	if n < 2 || n&(n-1) != 0 {
		return fmt.Errorf("scrypt N must be a power of two greater than 1, got %d", n)
	}
	if n > scryptMaxN || r < 1 || r > scryptMaxR || p < 1 || p > scryptMaxP {
		return fmt.Errorf("scrypt parameters out of range: N=%d r=%d p=%d", n, r, p)
	}
	if memory := 128 * n * r; memory > scryptMaxMemory {
		return fmt.Errorf("scrypt parameters demand %d bytes of memory (limit %d)", memory, scryptMaxMemory)
	}
	return nil
}

// promptPassphrase reads a passphrase from the terminal without echo.
// When confirm is set (sealing, keygen) the passphrase is read twice
// and must match: a typo in a sealing passphrase loses the data.
func promptPassphrase(confirm bool) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("--passphrase requires a terminal on stdin (use --key for scripted use)")
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("empty passphrase")
	}
	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		again, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			secret.Zero(passphrase)
			return nil, fmt.Errorf("reading passphrase confirmation: %w", err)
		}
		match := string(passphrase) == string(again)
		secret.Zero(again)
		if !match {
			secret.Zero(passphrase)
			return nil, fmt.Errorf("passphrases do not match")
		}
	}
	return passphrase, nil
}

// scryptMasterKey derives a master key from a passphrase with the
// given scrypt parameters. The passphrase slice is zeroed.
func scryptMasterKey(passphrase, salt []byte, n, r, p int) (*secret.Buffer, error) {
	defer secret.Zero(passphrase)
	derived, err := scrypt.Key(passphrase, salt, n, r, p, boxcipher.KeySize)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation: %w", err)
	}
	return secret.NewFromBytes(derived)
}

// newScryptSalt generates a random salt for passphrase derivation.
func newScryptSalt() ([]byte, error) {
	salt := make([]byte, scryptSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating scrypt salt: %w", err)
	}
	return salt, nil
}

// masterKeyForSeal obtains the master key for sealing and fills in
// the manifest's KDF fields. Exactly one of keyPath and passphrase
// mode must be selected.
func masterKeyForSeal(keyPath string, passphrase bool, manifest *Manifest) (*secret.Buffer, error) {
	if passphrase {
		if keyPath != "" {
			return nil, fmt.Errorf("--key and --passphrase are mutually exclusive")
		}
		salt, err := newScryptSalt()
		if err != nil {
			return nil, err
		}
		entered, err := promptPassphrase(true)
		if err != nil {
			return nil, err
		}
		manifest.KDF = "scrypt"
		manifest.ScryptSalt = salt
		manifest.ScryptN = scryptN
		manifest.ScryptR = scryptR
		manifest.ScryptP = scryptP
		return scryptMasterKey(entered, salt, scryptN, scryptR, scryptP)
	}
	if keyPath == "" {
		return nil, fmt.Errorf("a master key is required: --key <path> or --passphrase")
	}
	manifest.KDF = "key"
	return secret.ReadFromPath(keyPath)
}

// masterKeyForOpen obtains the master key for opening, driven by the
// manifest's recorded KDF.
func masterKeyForOpen(keyPath string, manifest *Manifest) (*secret.Buffer, error) {
	switch manifest.KDF {
	case "scrypt":
		if len(manifest.ScryptSalt) == 0 {
			return nil, fmt.Errorf("manifest is missing the scrypt salt")
		}
		if err := validateScryptParameters(manifest.ScryptN, manifest.ScryptR, manifest.ScryptP); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		entered, err := promptPassphrase(false)
		if err != nil {
			return nil, err
		}
		return scryptMasterKey(entered, manifest.ScryptSalt,
			manifest.ScryptN, manifest.ScryptR, manifest.ScryptP)
	case "key":
		if keyPath == "" {
			return nil, fmt.Errorf("this stream was sealed with a key file: --key <path> is required")
		}
		return secret.ReadFromPath(keyPath)
	default:
		return nil, fmt.Errorf("unknown key derivation %q in manifest", manifest.KDF)
	}
}
