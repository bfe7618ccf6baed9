// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// main.go
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
)

const (
	proofsDir           = "./proofs"
	filecoinG1PointFile = "./filecoin_srs_g1_point"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		return 2
	}

	switch args[0] {
	case "verify-structure":
		return runVerifyStructure(args[1:], stdout, stderr)
	case "verify-chain":
		return runVerifyChain(args[1:], stdout, stderr)
	case "update":
		return runUpdate(args[1:], stdout, stderr)
	case "extract-filecoin-g1-point":
		return runExtractFilecoin(args[1:], stdout, stderr)
	case "drand-verifier":
		return runDrandVerifier(args[1:], stdout, stderr)
	case "srs-consistency":
		return runSRSConsistency(args[1:], stdout, stderr)
	default:
		return 2
	}
}

func runVerifyStructure(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify-structure", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var log2Len int
	cmd.IntVar(&log2Len, "log2-len", 0, "log2 of the number of g1 points expected in the srs")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if cmd.NArg() != 1 {
		fmt.Fprintln(stderr, "error: expected a single <srs-path> argument")
		cmd.Usage()
		return 2
	}
	if log2Len <= 0 {
		fmt.Fprintln(stderr, "error: -log2-len is required and must be positive")
		return 2
	}

	srs, err := readSRSFile(cmd.Arg(0), 1<<uint(log2Len))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if err := srs.verifyStructure(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintln(stdout, "OK: srs structure verified")
	return 0
}

func runVerifyChain(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify-chain", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if cmd.NArg() != 1 {
		fmt.Fprintln(stderr, "error: expected a single <srs-path> argument")
		cmd.Usage()
		return 2
	}

	firstFile, err := openFile(filecoinG1PointFile)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	first, err := readG1Point(firstFile)
	firstFile.Close()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	lastFile, err := openFile(cmd.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if _, err := lastFile.Seek(g1Size, 0); err != nil {
		lastFile.Close()
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	last, err := readG1Point(lastFile)
	lastFile.Close()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	store := newFileProofStore(proofsDir)
	if err := verifyChain(store, first, last); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintln(stdout, "OK: proof chain verified")
	return 0
}

func runUpdate(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("update", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if cmd.NArg() != 1 {
		fmt.Fprintln(stderr, "error: expected a single <srs-path> argument")
		cmd.Usage()
		return 2
	}
	oldPath := cmd.Arg(0)

	srs, err := readSRSFileAuto(oldPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	store := newFileProofStore(proofsDir)
	if prevLast, err := store.Last(); err == nil {
		if !srs.G1s[1].Equal(&prevLast.H) {
			fmt.Fprintln(stderr, "error: srs does not match the chain of updates")
			return 1
		}
	}

	nu, err := generateToxicWaste(os.Stdin)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	proof, err := srs.update(nu)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	newPath := oldPath + ".new"
	if err := srs.writeToFile(newPath); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if _, _, err := store.Append(proof); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintln(stdout, "OK: wrote", newPath)
	return 0
}

// readSRSFileAuto infers the srs's g1 length from file size, so the
// update command does not need a -log2-len flag: (size - 2*g2Size) / g1Size.
func readSRSFileAuto(path string) (*SRS, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	remaining := info.Size() - 2*g2Size
	if remaining <= 0 || remaining%g1Size != 0 {
		return nil, fmt.Errorf("%s: file size %d is not a valid srs layout", path, info.Size())
	}
	n := int(remaining / g1Size)
	return readSRSFile(path, n)
}

func runExtractFilecoin(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("extract-filecoin-g1-point", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if cmd.NArg() != 1 {
		fmt.Fprintln(stderr, "error: expected a single <phase1radix2mN-path> argument")
		cmd.Usage()
		return 2
	}

	const defaultK = 19
	point, err := extractFilecoinG1Point(cmd.Arg(0), defaultK)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if err := writeFilecoinG1Point(filecoinG1PointFile, point); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintln(stdout, "OK: wrote", filecoinG1PointFile)
	return 0
}

func runDrandVerifier(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("drand-verifier", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var round uint64
	var saltHex, commitmentHex string
	var fullChain bool
	cmd.Uint64Var(&round, "round", 0, "drand round number")
	cmd.StringVar(&saltHex, "salt", "", "16-byte salt, hex encoded")
	cmd.StringVar(&commitmentHex, "commitment", "", "32-byte commitment, hex encoded")
	cmd.BoolVar(&fullChain, "verify-chain", false, "also verify the full drand chain from round 1")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if round == 0 || saltHex == "" || commitmentHex == "" {
		fmt.Fprintln(stderr, "error: -round, -salt, and -commitment are required")
		cmd.Usage()
		return 2
	}

	saltBytes, err := hex.DecodeString(saltHex)
	if err != nil || len(saltBytes) != 16 {
		fmt.Fprintln(stderr, "error: -salt must be 16 bytes of hex")
		return 2
	}
	commitmentBytes, err := hex.DecodeString(commitmentHex)
	if err != nil || len(commitmentBytes) != 32 {
		fmt.Fprintln(stderr, "error: -commitment must be 32 bytes of hex")
		return 2
	}

	var salt [16]byte
	copy(salt[:], saltBytes)
	var commitment [32]byte
	copy(commitment[:], commitmentBytes)
	binding := DrandBinding{Round: round, Salt: salt, Commitment: commitment}

	store := newFileProofStore(proofsDir)
	last, err := store.Last()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	client := newHTTPDrandClient()
	ctx := context.Background()

	if fullChain {
		if err := verifyDrandChain(ctx, client, 1, round); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}

	if err := verifyDrandUpdate(ctx, client, drandPublicKeyHex, binding, last); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintln(stdout, "OK: drand binding verified")
	return 0
}

func runSRSConsistency(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("srs-consistency", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if cmd.NArg() != 2 {
		fmt.Fprintln(stderr, "error: expected <powers-of-tau-path> <extended-srs-path>")
		cmd.Usage()
		return 2
	}
	powersOfTauPath, extendedPath := cmd.Arg(0), cmd.Arg(1)

	extended, err := readExtendedSRSFile(extendedPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	n := len(extended.Coeff)
	coeffMatches, err := compareBytes(powersOfTauPath, 0, extendedPath, 4, int64(n*g1Size))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if !coeffMatches {
		fmt.Fprintln(stderr, "error: coefficient-basis g1 points do not match the powers-of-tau file")
		return 1
	}

	trailerMatches, err := compareBytes(powersOfTauPath, -2*g2Size, extendedPath, -2*g2Size, 2*g2Size)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if !trailerMatches {
		fmt.Fprintln(stderr, "error: trailing g2 points do not match between the two files")
		return 1
	}

	if err := extended.checkConsistency(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintln(stdout, "OK: dual-basis consistency verified")
	return 0
}
