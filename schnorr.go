// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// schnorr.go implements a Schnorr proof of knowledge over BLS12-381 G1,
// Fiat-Shamir transformed with Blake2b-512, and the update-proof wrapper
// that carries one alongside its (g, h) pair.
package main

import (
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/blake2b"
)

// SchnorrProof proves knowledge of x such that h = [x]g, without revealing x.
type SchnorrProof struct {
	A bls12381.G1Affine
	Z fr.Element
}

// proveSchnorr produces a proof that the prover knows x with h = [x]g.
func proveSchnorr(g, h bls12381.G1Affine, x fr.Element) (SchnorrProof, error) {
	var r fr.Element
	if _, err := r.SetRandom(); err != nil {
		return SchnorrProof{}, fmt.Errorf("sample schnorr nonce: %w", err)
	}

	var a bls12381.G1Affine
	a.ScalarMultiplication(&g, r.BigInt(new(big.Int)))

	e, err := fiatShamirChallenge(g, h, a)
	if err != nil {
		return SchnorrProof{}, err
	}

	// z = r + x*e
	var z fr.Element
	z.Mul(&x, &e)
	z.Add(&z, &r)

	return SchnorrProof{A: a, Z: z}, nil
}

// verify checks that g*z == h*e + a, recomputing e from (g, h, a).
func (p SchnorrProof) verify(g, h bls12381.G1Affine) error {
	e, err := fiatShamirChallenge(g, h, p.A)
	if err != nil {
		return err
	}

	var lhs bls12381.G1Affine
	lhs.ScalarMultiplication(&g, p.Z.BigInt(new(big.Int)))

	var rhs bls12381.G1Affine
	rhs.ScalarMultiplication(&h, e.BigInt(new(big.Int)))
	var rhsJac, aJac bls12381.G1Jac
	rhsJac.FromAffine(&rhs)
	aJac.FromAffine(&p.A)
	rhsJac.AddAssign(&aJac)
	rhs.FromJacobian(&rhsJac)

	if !lhs.Equal(&rhs) {
		return fmt.Errorf("schnorr proof verification failed")
	}
	return nil
}

// fiatShamirChallenge hashes (g, h, a) in that exact order with
// Blake2b-512 and reduces the wide digest modulo r. No domain
// separation tag is added: the wire contract is exactly this triple.
func fiatShamirChallenge(g, h, a bls12381.G1Affine) (fr.Element, error) {
	hasher, err := blake2b.New512(nil)
	if err != nil {
		return fr.Element{}, fmt.Errorf("init blake2b: %w", err)
	}
	gb := g.RawBytes()
	hb := h.RawBytes()
	ab := a.RawBytes()
	hasher.Write(gb[:])
	hasher.Write(hb[:])
	hasher.Write(ab[:])
	digest := hasher.Sum(nil)

	return scalarFromWideBytes(digest), nil
}

// scalarFromWideBytes reduces a wide (64-byte) big-endian digest modulo
// the scalar field order, the Go equivalent of the source's
// Scalar::from_uniform_bytes wide-reduction sampler.
func scalarFromWideBytes(digest []byte) fr.Element {
	v := new(big.Int).SetBytes(digest)
	v.Mod(v, fr.Modulus())
	var e fr.Element
	e.SetBigInt(v)
	return e
}

// UpdateProof binds a Schnorr proof of knowledge to the specific (g, h)
// pair it was derived over, so the pair travels with its proof on disk.
type UpdateProof struct {
	G, H  bls12381.G1Affine
	Proof SchnorrProof
}

func createUpdateProof(g, h bls12381.G1Affine, nu fr.Element) (UpdateProof, error) {
	proof, err := proveSchnorr(g, h, nu)
	if err != nil {
		return UpdateProof{}, err
	}
	return UpdateProof{G: g, H: h, Proof: proof}, nil
}

func (u UpdateProof) verify() error {
	return u.Proof.verify(u.G, u.H)
}

// updateProofSize is the fixed on-disk size of one UpdateProof: a(96) + z(32) + g(96) + h(96).
const updateProofSize = g1Size + scalarSize + g1Size + g1Size

func (u UpdateProof) writeTo(w io.Writer) error {
	if err := writeG1Point(w, &u.Proof.A); err != nil {
		return fmt.Errorf("write schnorr a: %w", err)
	}
	zb := u.Proof.Z.Bytes()
	if _, err := w.Write(zb[:]); err != nil {
		return fmt.Errorf("write schnorr z: %w", err)
	}
	if err := writeG1Point(w, &u.G); err != nil {
		return fmt.Errorf("write g: %w", err)
	}
	if err := writeG1Point(w, &u.H); err != nil {
		return fmt.Errorf("write h: %w", err)
	}
	return nil
}

func readUpdateProof(r io.Reader) (UpdateProof, error) {
	a, err := readG1Point(r)
	if err != nil {
		return UpdateProof{}, fmt.Errorf("read schnorr a: %w", err)
	}
	var zb [scalarSize]byte
	if _, err := io.ReadFull(r, zb[:]); err != nil {
		return UpdateProof{}, fmt.Errorf("read schnorr z: %w", err)
	}
	var z fr.Element
	z.SetBytes(zb[:])

	g, err := readG1Point(r)
	if err != nil {
		return UpdateProof{}, fmt.Errorf("read g: %w", err)
	}
	h, err := readG1Point(r)
	if err != nil {
		return UpdateProof{}, fmt.Errorf("read h: %w", err)
	}

	return UpdateProof{G: g, H: h, Proof: SchnorrProof{A: a, Z: z}}, nil
}

func writeUpdateProofFile(path string, u UpdateProof) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := u.writeTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readUpdateProofFile(path string) (UpdateProof, error) {
	f, err := openFile(path)
	if err != nil {
		return UpdateProof{}, err
	}
	defer f.Close()
	u, err := readUpdateProof(f)
	if err != nil {
		return UpdateProof{}, fmt.Errorf("read %s: %w", path, err)
	}
	return u, nil
}
