// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// srs_test.go
package main

import (
	"math/big"
	"path/filepath"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// newGenesisSRS builds an n-length SRS from a known tau, the way a
// ceremony's genesis contribution would.
func newGenesisSRS(n int, tau uint64) *SRS {
	_, _, g1Gen, g2Gen := bls12381.Generators()

	var tauElem fr.Element
	tauElem.SetUint64(tau)
	powers := powersOf(tauElem, n)

	g1s := make([]bls12381.G1Affine, n)
	for i := range g1s {
		g1s[i].ScalarMultiplication(&g1Gen, powers[i].BigInt(new(big.Int)))
	}

	var g2s [2]bls12381.G2Affine
	g2s[0] = g2Gen
	g2s[1].ScalarMultiplication(&g2Gen, tauElem.BigInt(new(big.Int)))

	return &SRS{G1s: g1s, G2s: g2s}
}

func TestSRS_WriteReadRoundTrip(t *testing.T) {
	srs := newGenesisSRS(16, 11)
	path := filepath.Join(t.TempDir(), "srs.bin")

	if err := srs.writeToFile(path); err != nil {
		t.Fatalf("writeToFile failed: %v", err)
	}
	got, err := readSRSFile(path, 16)
	if err != nil {
		t.Fatalf("readSRSFile failed: %v", err)
	}
	if len(got.G1s) != 16 {
		t.Fatalf("expected 16 g1 points, got %d", len(got.G1s))
	}
	for i := range srs.G1s {
		if !got.G1s[i].Equal(&srs.G1s[i]) {
			t.Fatalf("g1[%d] mismatch after round trip", i)
		}
	}
	if !got.G2s[0].Equal(&srs.G2s[0]) || !got.G2s[1].Equal(&srs.G2s[1]) {
		t.Fatal("g2 points mismatch after round trip")
	}
}

func TestSRS_VerifyStructure_ValidGenesis(t *testing.T) {
	srs := newGenesisSRS(1<<10, 11)
	if err := srs.verifyStructure(); err != nil {
		t.Fatalf("expected valid genesis srs to verify, got: %v", err)
	}
}

// TestSRS_VerifyStructure_CorruptedPoint mirrors the scenario where a
// single g1 point is replaced by the identity element partway through
// the srs: structural verification must catch it.
func TestSRS_VerifyStructure_CorruptedPoint(t *testing.T) {
	srs := newGenesisSRS(1<<10, 11)
	srs.G1s[5] = bls12381.G1Affine{}

	if err := srs.verifyStructure(); err == nil {
		t.Fatal("expected verifyStructure to fail with an identity point at index 5")
	}
}

func TestSRS_VerifyStructure_WrongGenerator(t *testing.T) {
	srs := newGenesisSRS(8, 11)
	var tau fr.Element
	tau.SetUint64(11)
	srs.G1s[0].ScalarMultiplication(&srs.G1s[0], tau.BigInt(new(big.Int)))

	if err := srs.verifyStructure(); err == nil {
		t.Fatal("expected verifyStructure to fail when g1[0] is not the generator")
	}
}

func TestSRS_VerifyStructure_G2TauEqualsG2Gen(t *testing.T) {
	srs := newGenesisSRS(8, 1)
	if err := srs.verifyStructure(); err == nil {
		t.Fatal("expected verifyStructure to fail when tau=1 makes g2[1] equal g2[0]")
	}
}

func TestSRS_VerifyStructure_InconsistentCrossGroup(t *testing.T) {
	srs := newGenesisSRS(8, 11)
	// Replace one g1 power with an unrelated point so the monomial
	// progression no longer matches g2[1] = [tau]G2.
	var wrong fr.Element
	wrong.SetUint64(999)
	_, _, g1Gen, _ := bls12381.Generators()
	srs.G1s[3].ScalarMultiplication(&g1Gen, wrong.BigInt(new(big.Int)))

	if err := srs.verifyStructure(); err == nil {
		t.Fatal("expected cross-group consistency check to fail")
	}
}

// TestSRS_Update_FoldsContribution mirrors the scenario where a genesis
// srs at tau0=11 receives a nu=7 update: every g1 power and g2[1] must
// scale by the corresponding power of nu, and the returned proof must
// verify against the old/new tau commitments.
func TestSRS_Update_FoldsContribution(t *testing.T) {
	srs := newGenesisSRS(1<<12, 11)
	oldTau := srs.G1s[1]

	var nu fr.Element
	nu.SetUint64(7)

	proof, err := srs.update(nu)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if !proof.G.Equal(&oldTau) {
		t.Fatal("proof.G should equal the pre-update tau commitment")
	}
	if !proof.H.Equal(&srs.G1s[1]) {
		t.Fatal("proof.H should equal the post-update tau commitment")
	}
	if err := proof.verify(); err != nil {
		t.Fatalf("update proof failed to verify: %v", err)
	}

	// The updated srs should describe powers of (11*7) = 77.
	expected := newGenesisSRS(1<<12, 77)
	for i := range expected.G1s {
		if !srs.G1s[i].Equal(&expected.G1s[i]) {
			t.Fatalf("g1[%d] does not match expected tau=77 power after update", i)
		}
	}
	if !srs.G2s[1].Equal(&expected.G2s[1]) {
		t.Fatal("g2[1] does not match expected tau=77 commitment after update")
	}

	if err := srs.verifyStructure(); err != nil {
		t.Fatalf("updated srs should still satisfy structural invariants: %v", err)
	}
}

func TestPowersOf(t *testing.T) {
	var x fr.Element
	x.SetUint64(3)
	got := powersOf(x, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 powers, got %d", len(got))
	}
	want := []uint64{1, 3, 9, 27}
	for i, w := range want {
		var e fr.Element
		e.SetUint64(w)
		if !got[i].Equal(&e) {
			t.Fatalf("power[%d]: got %s want %d", i, got[i].String(), w)
		}
	}
}
