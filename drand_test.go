// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// drand_test.go
package main

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// fixtureDrandClient is an in-memory stand-in for the real HTTPS drand
// client: a ceremony's own BLS keypair substitutes for the compiled-in
// beacon public key, since no live beacon history is available offline.
type fixtureDrandClient map[uint64]DrandRound

func (c fixtureDrandClient) FetchRound(_ context.Context, round uint64) (DrandRound, error) {
	r, ok := c[round]
	if !ok {
		return DrandRound{}, fmt.Errorf("round %d not found in fixture", round)
	}
	return r, nil
}

func signDrandRound(t *testing.T, sk fr.Element, round uint64) []byte {
	t.Helper()

	var roundBuf [8]byte
	binary.BigEndian.PutUint64(roundBuf[:], round)
	msgHash := sha256.Sum256(roundBuf[:])

	msgPoint, err := bls12381.HashToG2(msgHash[:], []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_"))
	if err != nil {
		t.Fatalf("HashToG2 failed: %v", err)
	}

	var sig bls12381.G2Affine
	sig.ScalarMultiplication(&msgPoint, sk.BigInt(new(big.Int)))
	sigBytes := sig.Bytes()
	return sigBytes[:]
}

func TestComputeCommitment_DeterministicAndSensitive(t *testing.T) {
	var salt [16]byte
	copy(salt[:], []byte("0123456789abcdef"))

	c1 := computeCommitment(100, salt)
	c2 := computeCommitment(100, salt)
	if c1 != c2 {
		t.Fatal("computeCommitment should be deterministic")
	}

	c3 := computeCommitment(101, salt)
	if c1 == c3 {
		t.Fatal("different rounds should produce different commitments")
	}

	var otherSalt [16]byte
	copy(otherSalt[:], []byte("fedcba9876543210"))
	c4 := computeCommitment(100, otherSalt)
	if c1 == c4 {
		t.Fatal("different salts should produce different commitments")
	}
}

func TestDrandBinding_VerifyCommitment(t *testing.T) {
	var salt [16]byte
	copy(salt[:], []byte("0123456789abcdef"))
	binding := newDrandBinding(42, salt)

	if err := binding.verifyCommitment(); err != nil {
		t.Fatalf("expected valid binding to verify, got: %v", err)
	}

	tampered := binding
	tampered.Round = 43
	if err := tampered.verifyCommitment(); err == nil {
		t.Fatal("expected verifyCommitment to fail after changing the round")
	}
}

func TestVerifyDrandSignature_ValidAndTampered(t *testing.T) {
	var sk fr.Element
	sk.SetUint64(987654321)

	_, _, g1Gen, _ := bls12381.Generators()
	var pub bls12381.G1Affine
	pub.ScalarMultiplication(&g1Gen, sk.BigInt(new(big.Int)))
	pubBytes := pub.Bytes()
	pubHex := hex.EncodeToString(pubBytes[:])

	sigBytes := signDrandRound(t, sk, 7)
	round := DrandRound{Round: 7, Signature: sigBytes}

	if err := verifyDrandSignature(pubHex, round); err != nil {
		t.Fatalf("expected valid signature to verify, got: %v", err)
	}

	wrongRound := DrandRound{Round: 8, Signature: sigBytes}
	if err := verifyDrandSignature(pubHex, wrongRound); err == nil {
		t.Fatal("expected verification to fail for a signature over a different round")
	}
}

func TestBeaconSeed_Deterministic(t *testing.T) {
	sig := []byte("a fixed 96-byte-ish signature for determinism testing purposes!")
	var salt [16]byte
	copy(salt[:], []byte("0123456789abcdef"))

	s1, err := beaconSeed(sig, salt)
	if err != nil {
		t.Fatalf("beaconSeed failed: %v", err)
	}
	s2, err := beaconSeed(sig, salt)
	if err != nil {
		t.Fatalf("beaconSeed failed: %v", err)
	}
	if s1 != s2 {
		t.Fatal("beaconSeed should be deterministic")
	}

	var otherSalt [16]byte
	copy(otherSalt[:], []byte("fedcba9876543210"))
	s3, err := beaconSeed(sig, otherSalt)
	if err != nil {
		t.Fatalf("beaconSeed failed: %v", err)
	}
	if s1 == s3 {
		t.Fatal("different salts should produce different beacon seeds")
	}
}

func TestVerifyDrandUpdate_EndToEndFixture(t *testing.T) {
	var sk fr.Element
	sk.SetUint64(13579)

	_, _, g1Gen, _ := bls12381.Generators()
	var pub bls12381.G1Affine
	pub.ScalarMultiplication(&g1Gen, sk.BigInt(new(big.Int)))
	pubBytes := pub.Bytes()
	pubHex := hex.EncodeToString(pubBytes[:])

	const round = 555
	var salt [16]byte
	copy(salt[:], []byte("fixturesaltbytes"))

	sigBytes := signDrandRound(t, sk, round)
	client := fixtureDrandClient{round: {Round: round, Signature: sigBytes}}
	binding := newDrandBinding(round, salt)

	seed, err := beaconSeed(sigBytes, salt)
	if err != nil {
		t.Fatalf("beaconSeed failed: %v", err)
	}
	nu, err := scalarFromSeed(seed)
	if err != nil {
		t.Fatalf("scalarFromSeed failed: %v", err)
	}

	var h bls12381.G1Affine
	h.ScalarMultiplication(&g1Gen, nu.BigInt(new(big.Int)))
	last := UpdateProof{G: g1Gen, H: h}

	ctx := context.Background()
	if err := verifyDrandUpdate(ctx, client, pubHex, binding, last); err != nil {
		t.Fatalf("expected verifyDrandUpdate to succeed, got: %v", err)
	}

	wrongLast := UpdateProof{G: g1Gen, H: g1Gen}
	if err := verifyDrandUpdate(ctx, client, pubHex, binding, wrongLast); err == nil {
		t.Fatal("expected verifyDrandUpdate to fail when h does not match the derived nu")
	}
}

func TestVerifyDrandChain_ValidAndBroken(t *testing.T) {
	client := fixtureDrandClient{
		1: {Round: 1, Signature: []byte("sig-round-1")},
		2: {Round: 2, Signature: []byte("sig-round-2"), PreviousSignature: []byte("sig-round-1")},
		3: {Round: 3, Signature: []byte("sig-round-3"), PreviousSignature: []byte("sig-round-2")},
	}

	ctx := context.Background()
	if err := verifyDrandChain(ctx, client, 1, 3); err != nil {
		t.Fatalf("expected valid chain to verify, got: %v", err)
	}

	broken := fixtureDrandClient{
		1: {Round: 1, Signature: []byte("sig-round-1")},
		2: {Round: 2, Signature: []byte("sig-round-2"), PreviousSignature: []byte("wrong-previous")},
	}
	if err := verifyDrandChain(ctx, broken, 1, 2); err == nil {
		t.Fatal("expected broken chain to fail verification")
	}
}
