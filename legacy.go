// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// legacy.go ingests a legacy Filecoin-style phase1radix2mN powers-of-tau
// file: its G1 points are stored in evaluation (Lagrange) form, so they
// must be transformed to monomial form via a group FFT before the
// index-1 coefficient (the [tau]G1 point) can be extracted.
package main

import (
	"fmt"
	"io"
	"os"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// filecoinHeaderSize is the number of bytes preceding the G1 power
// array in a phase1radix2mN file: [alpha]G1, [beta]G1, [beta]G2.
const filecoinHeaderSize = g1Size + g1Size + g2Size

// extractFilecoinG1Point reads 2^k G1 points from a legacy
// phase1radix2mN file, converts them from evaluation to monomial basis
// via a group FFT, and returns the index-1 coefficient: [tau]G1.
func extractFilecoinG1Point(path string, k uint32) (bls12381.G1Affine, error) {
	n := 1 << k

	f, err := os.Open(path)
	if err != nil {
		return bls12381.G1Affine{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(filecoinHeaderSize, 0); err != nil {
		return bls12381.G1Affine{}, fmt.Errorf("seek past header in %s: %w", path, err)
	}

	buf := make([]byte, n*g1Size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return bls12381.G1Affine{}, fmt.Errorf("read %d g1 powers from %s: %w", n, path, err)
	}

	points, err := readG1Points(buf, n)
	if err != nil {
		return bls12381.G1Affine{}, fmt.Errorf("%s: %w", path, err)
	}

	w := domainGenerator(uint64(n))
	if err := fftG1InPlace(points, w); err != nil {
		return bls12381.G1Affine{}, fmt.Errorf("group fft over %s: %w", path, err)
	}

	return points[1], nil
}

// writeFilecoinG1Point writes the extracted point in the same raw
// uncompressed format every other G1 point in this repo uses.
func writeFilecoinG1Point(path string, p bls12381.G1Affine) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeG1Point(f, &p); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
