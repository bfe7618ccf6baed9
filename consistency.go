// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// consistency.go implements the dual-basis consistency check: an
// extended SRS carries both a monomial (coefficient) and a Lagrange
// (evaluation) basis, and this verifies the two agree without paying
// for an explicit O(N log N) group FFT on every check.
package main

import (
	"fmt"
	"io"
	"os"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/fft"
)

// ExtendedSRS carries both bases of a powers-of-tau SRS of size
// n = 2^k, plus the two G2 points shared with the plain SRS file.
type ExtendedSRS struct {
	K        uint32
	Coeff    []bls12381.G1Affine
	Lagrange []bls12381.G1Affine
	G2s      [2]bls12381.G2Affine
}

func readExtendedSRSFile(path string) (*ExtendedSRS, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var kBuf [4]byte
	if _, err := io.ReadFull(f, kBuf[:]); err != nil {
		return nil, fmt.Errorf("read k: %w", err)
	}
	k := uint32(kBuf[0]) | uint32(kBuf[1])<<8 | uint32(kBuf[2])<<16 | uint32(kBuf[3])<<24
	n := 1 << k

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	want := 2*n*g1Size + 2*g2Size
	if len(buf) != want {
		return nil, fmt.Errorf("%s: expected %d bytes after header, got %d", path, want, len(buf))
	}

	coeff, err := readG1Points(buf[:n*g1Size], n)
	if err != nil {
		return nil, fmt.Errorf("%s: coeff basis: %w", path, err)
	}
	lagrange, err := readG1Points(buf[n*g1Size:2*n*g1Size], n)
	if err != nil {
		return nil, fmt.Errorf("%s: lagrange basis: %w", path, err)
	}

	var g2s [2]bls12381.G2Affine
	off := 2 * n * g1Size
	for i := range g2s {
		if _, err := g2s[i].SetBytes(buf[off : off+g2Size]); err != nil {
			return nil, fmt.Errorf("%s: decode g2[%d]: %w", path, i, err)
		}
		off += g2Size
	}

	return &ExtendedSRS{K: k, Coeff: coeff, Lagrange: lagrange, G2s: g2s}, nil
}

// checkConsistency samples a random polynomial of degree < n, commits
// to it against the coefficient basis via MSM, evaluates it over the
// domain via a scalar NTT, then commits the evaluations against the
// Lagrange basis via MSM. The two commitments must be equal.
func (e *ExtendedSRS) checkConsistency() error {
	n := len(e.Coeff)
	if n == 0 || n != len(e.Lagrange) {
		return fmt.Errorf("mismatched basis sizes: coeff=%d lagrange=%d", n, len(e.Lagrange))
	}

	randomPoly := make([]fr.Element, n)
	for i := range randomPoly {
		if _, err := randomPoly[i].SetRandom(); err != nil {
			return fmt.Errorf("sample random polynomial: %w", err)
		}
	}

	config := multiExpConfig()
	var comCoeff bls12381.G1Affine
	if _, err := comCoeff.MultiExp(e.Coeff, randomPoly, config); err != nil {
		return fmt.Errorf("commit coefficient basis: %w", err)
	}

	domain := fft.NewDomain(uint64(n))
	evaluated := make([]fr.Element, n)
	copy(evaluated, randomPoly)
	domain.FFT(evaluated, fft.DIF)
	fft.BitReverse(evaluated)

	var comLagrange bls12381.G1Affine
	if _, err := comLagrange.MultiExp(e.Lagrange, evaluated, config); err != nil {
		return fmt.Errorf("commit lagrange basis: %w", err)
	}

	if !comCoeff.Equal(&comLagrange) {
		return fmt.Errorf("dual-basis consistency check failed: commitments disagree")
	}
	return nil
}

// rootOfUnityForDomain returns the generator of the order-2^k domain,
// the same two-adicity-sourced root of unity checkConsistency's scalar
// FFT uses. The legacy ingest path calls domainGenerator directly.
func rootOfUnityForDomain(k uint32) fr.Element {
	return domainGenerator(1 << k)
}
