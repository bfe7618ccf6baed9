// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// chain.go verifies the lineage of updates leading from a ceremony's
// first contribution to its current SRS.
package main

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// verifyChain walks the stored proof chain from first to last,
// confirming each link's Schnorr proof and that it stitches to the
// next, then confirms the final H matches the SRS's current tau point.
func verifyChain(store ProofStore, first, last bls12381.G1Affine) error {
	proofs, err := store.ListOrdered()
	if err != nil {
		return err
	}
	if len(proofs) == 0 {
		return fmt.Errorf("no update proofs found")
	}

	running := first
	for i, p := range proofs {
		if !p.G.Equal(&running) {
			return fmt.Errorf("proof %d: g does not match expected chain point", i+1)
		}
		if p.G.Equal(&p.H) {
			return fmt.Errorf("proof %d: g equals h, update contributed no randomness", i+1)
		}
		if err := p.verify(); err != nil {
			return fmt.Errorf("proof %d: %w", i+1, err)
		}
		running = p.H
	}

	if !running.Equal(&last) {
		return fmt.Errorf("chain does not terminate at the srs's current tau point")
	}
	return nil
}
