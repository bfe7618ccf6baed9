// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// srs.go implements the structured reference string: its on-disk
// layout, structural verification, and the update operation that
// folds a fresh contribution into an existing SRS.
package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"
)

// SRS is the powers-of-tau structured reference string:
//
//	G1s = [ [1]G1, [tau]G1, [tau^2]G1, ..., [tau^(n-1)]G1 ]
//	G2s = [ [1]G2, [tau]G2 ]
type SRS struct {
	G1s []bls12381.G1Affine
	G2s [2]bls12381.G2Affine
}

// readSRSFile reads an SRS of exactly n G1 points from path.
func readSRSFile(path string, n int) (*SRS, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	want := n*g1Size + 2*g2Size
	if len(buf) != want {
		return nil, fmt.Errorf("%s: expected %d bytes, got %d", path, want, len(buf))
	}

	g1s, err := readG1Points(buf[:n*g1Size], n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var g2s [2]bls12381.G2Affine
	off := n * g1Size
	for i := range g2s {
		if _, err := g2s[i].SetBytes(buf[off : off+g2Size]); err != nil {
			return nil, fmt.Errorf("%s: decode g2[%d]: %w", path, i, err)
		}
		off += g2Size
	}

	return &SRS{G1s: g1s, G2s: g2s}, nil
}

func (s *SRS) writeToFile(path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := range s.G1s {
		if err := writeG1Point(f, &s.G1s[i]); err != nil {
			return fmt.Errorf("write %s: g1[%d]: %w", path, i, err)
		}
	}
	for i := range s.G2s {
		if err := writeG2Point(f, &s.G2s[i]); err != nil {
			return fmt.Errorf("write %s: g2[%d]: %w", path, i, err)
		}
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return nil
}

// verifyStructure checks the four invariants a well-formed SRS must
// satisfy: no identity points, the expected generators, a non-identity
// and non-generator tau commitment, and monomial/cross-group
// consistency checked via one batched pairing.
func (s *SRS) verifyStructure() error {
	if len(s.G1s) == 0 {
		return fmt.Errorf("srs has no g1 points")
	}

	_, _, g1Gen, g2Gen := bls12381.Generators()

	var identity bls12381.G1Affine
	for i, p := range s.G1s {
		if p.Equal(&identity) {
			return fmt.Errorf("g1[%d] is the identity element", i)
		}
	}
	if !s.G1s[0].Equal(&g1Gen) {
		return fmt.Errorf("g1[0] is not the generator")
	}
	if !s.G2s[0].Equal(&g2Gen) {
		return fmt.Errorf("g2[0] is not the generator")
	}
	var g2Identity bls12381.G2Affine
	if s.G2s[1].Equal(&g2Identity) {
		return fmt.Errorf("g2[1] is the identity element")
	}
	if s.G2s[1].Equal(&s.G2s[0]) {
		return fmt.Errorf("g2[1] equals g2[0]: tau may be 1")
	}

	return s.verifyCrossGroupConsistency()
}

// verifyCrossGroupConsistency samples a random rho, takes its powers
// rho_i = rho^i, and checks
//
//	e( sum_i rho_i * g1[i+1], g2[0] ) == e( sum_i rho_i * g1[i], g2[1] )
//
// in a single batched pairing, which holds iff g1[i] = tau^i * G1 for
// every i consistent with g2[1] = tau * G2.
func (s *SRS) verifyCrossGroupConsistency() error {
	n := len(s.G1s) - 1
	if n <= 0 {
		return nil
	}

	var rho fr.Element
	if _, err := rho.SetRandom(); err != nil {
		return fmt.Errorf("sample consistency randomness: %w", err)
	}
	rhos := powersOf(rho, n)

	config := multiExpConfig()
	var left, right bls12381.G1Affine
	if _, err := left.MultiExp(s.G1s[1:n+1], rhos, config); err != nil {
		return fmt.Errorf("msm left: %w", err)
	}
	if _, err := right.MultiExp(s.G1s[0:n], rhos, config); err != nil {
		return fmt.Errorf("msm right: %w", err)
	}

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{left, negG1(right)},
		[]bls12381.G2Affine{s.G2s[0], s.G2s[1]},
	)
	if err != nil {
		return fmt.Errorf("pairing check: %w", err)
	}
	if !ok {
		return fmt.Errorf("srs structure invalid: cross-group pairing check failed")
	}
	return nil
}

func negG1(p bls12381.G1Affine) bls12381.G1Affine {
	var neg bls12381.G1Affine
	neg.Neg(&p)
	return neg
}

func multiExpConfig() ecc.MultiExpConfig {
	return ecc.MultiExpConfig{ScalarsMont: true, NbTasks: runtime.GOMAXPROCS(0)}
}

// update folds a fresh toxic-waste contribution nu into the SRS in
// place: g1s[i] *= nu^i, g2s[1] *= nu. The proof of knowledge of nu
// over (g1s[1]_old, g1s[1]_new) is returned so it can be appended to
// the proof chain.
func (s *SRS) update(nu fr.Element) (UpdateProof, error) {
	oldTau := s.G1s[1]

	n := len(s.G1s)
	powers := powersOf(nu, n)

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				s.G1s[i].ScalarMultiplication(&s.G1s[i], powers[i].BigInt(new(big.Int)))
			}
			return nil
		})
	}
	g.Wait()

	s.G2s[1].ScalarMultiplication(&s.G2s[1], nu.BigInt(new(big.Int)))

	return createUpdateProof(oldTau, s.G1s[1], nu)
}

// powersOf returns [1, x, x^2, ..., x^(n-1)].
func powersOf(x fr.Element, n int) []fr.Element {
	out := make([]fr.Element, n)
	if n == 0 {
		return out
	}
	out[0].SetOne()
	for i := 1; i < n; i++ {
		out[i].Mul(&out[i-1], &x)
	}
	return out
}
