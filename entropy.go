// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// entropy.go derives the toxic-waste scalar nu consumed by an SRS
// update from OS entropy and optional keystroke entropy, combined
// through Blake2b-512 and expanded with a ChaCha20 keystream.
package main

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

// generateToxicWaste samples a uniformly random scalar, combining 512
// bytes of OS entropy with whatever keystroke entropy is available from
// keyboardEntropy. keyboardEntropy may be nil in non-interactive
// contexts (CI, tests): the scalar remains sound on OS entropy alone,
// but callers running interactively should pass os.Stdin.
func generateToxicWaste(keyboardEntropy io.Reader) (fr.Element, error) {
	osEntropy := make([]byte, 512)
	if _, err := io.ReadFull(rand.Reader, osEntropy); err != nil {
		return fr.Element{}, fmt.Errorf("read os entropy: %w", err)
	}

	var keyBytes []byte
	if keyboardEntropy != nil {
		keyBytes = make([]byte, 512)
		n, err := keyboardEntropy.Read(keyBytes)
		if err != nil && err != io.EOF {
			return fr.Element{}, fmt.Errorf("read keyboard entropy: %w", err)
		}
		keyBytes = keyBytes[:n]
	}

	seed, err := combineEntropy(osEntropy, keyBytes)
	if err != nil {
		return fr.Element{}, err
	}

	return scalarFromSeed(seed)
}

// combineEntropy hashes the keyboard and OS entropy together with
// Blake2b-512, in that order per the wire-contract digest =
// Blake2b-512(user_input || os_bytes), returning the first 32 bytes as
// a ChaCha20 seed.
func combineEntropy(osEntropy, keyEntropy []byte) ([32]byte, error) {
	h, err := blake2b.New512(nil)
	if err != nil {
		return [32]byte{}, fmt.Errorf("init blake2b: %w", err)
	}
	h.Write(keyEntropy)
	h.Write(osEntropy)
	digest := h.Sum(nil)

	var seed [32]byte
	copy(seed[:], digest[:32])
	return seed, nil
}

// scalarFromSeed deterministically samples a scalar from a 32-byte
// seed by drawing a ChaCha20 keystream and reducing it modulo r.
// This is the direct Go analogue of seeding a ChaCha20Rng and asking
// it for one field element.
func scalarFromSeed(seed [32]byte) (fr.Element, error) {
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return fr.Element{}, fmt.Errorf("init chacha20: %w", err)
	}

	keystream := make([]byte, 32)
	cipher.XORKeyStream(keystream, keystream)

	var e fr.Element
	e.SetBytes(keystream)
	return e, nil
}
