// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// gfft.go implements an in-place radix-2 number-theoretic transform
// over BLS12-381 G1 points ("FFT in the exponent"), the group-element
// analogue of gnark-crypto's scalar-only fr/fft package. No pack
// library exposes this operation directly; the legacy Filecoin ingest
// is its only caller (the dual-basis consistency check uses the scalar
// FFT instead).
package main

import (
	"fmt"
	"math/big"
	"math/bits"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/fft"
)

// domainGenerator returns the primitive n-th root of unity gnark-crypto
// derives for a domain of the given cardinality, so the two-adicity of
// the scalar field is always sourced from the curve library rather
// than hardcoded.
func domainGenerator(n uint64) fr.Element {
	return fft.NewDomain(n).Generator
}

// fftG1InPlace overwrites points with their forward transform over the
// multiplicative subgroup generated by w, in natural order:
// points[j] becomes sum_i w^(i*j) * points[i]. Applied to a Lagrange
// basis [L_j(tau)]G1 this yields the monomial basis [tau^i]G1, which is
// how the legacy ingest uses it. len(points) must be a power of two.
func fftG1InPlace(points []bls12381.G1Affine, w fr.Element) error {
	n := len(points)
	if n == 0 || n&(n-1) != 0 {
		return fmt.Errorf("fft-in-exponent: size %d is not a power of two", n)
	}

	bitReverseG1(points)

	jac := make([]bls12381.G1Jac, n)
	for i := range points {
		jac[i].FromAffine(&points[i])
	}

	for blockLen := 1; blockLen < n; blockLen *= 2 {
		var wBlock fr.Element
		exp := new(big.Int).SetInt64(int64(n / (2 * blockLen)))
		wBlock.Exp(w, exp)

		for start := 0; start < n; start += 2 * blockLen {
			var wk fr.Element
			wk.SetOne()
			for k := 0; k < blockLen; k++ {
				var t bls12381.G1Jac
				t.ScalarMultiplication(&jac[start+blockLen+k], wk.BigInt(new(big.Int)))

				even := jac[start+k]
				var sum bls12381.G1Jac
				sum.Set(&even)
				sum.AddAssign(&t)

				var diff bls12381.G1Jac
				diff.Set(&even)
				diff.AddAssign(negateJacG1(&t))

				jac[start+k] = sum
				jac[start+blockLen+k] = diff

				wk.Mul(&wk, &wBlock)
			}
		}
	}

	for i := range points {
		points[i].FromJacobian(&jac[i])
	}
	return nil
}

func negateJacG1(p *bls12381.G1Jac) *bls12381.G1Jac {
	var neg bls12381.G1Jac
	neg.Set(p)
	neg.Y.Neg(&neg.Y)
	return &neg
}

// bitReverseG1 permutes points into bit-reversed order, the same
// permutation fft.BitReverse applies to scalar slices.
func bitReverseG1(points []bls12381.G1Affine) {
	n := uint(len(points))
	log2n := uint(bits.Len(n) - 1)
	for i := uint(0); i < n; i++ {
		j := bits.Reverse(i) >> (uint(bits.UintSize) - log2n)
		if j > i {
			points[i], points[j] = points[j], points[i]
		}
	}
}
