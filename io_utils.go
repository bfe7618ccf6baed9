// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// io_utils.go implements shared fixed-width binary I/O helpers used by
// the SRS, proof, and extended-SRS file formats.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"golang.org/x/sync/errgroup"
)

const (
	g1Size     = 96
	g2Size     = 192
	scalarSize = 32
)

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func createFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

// readG1Point reads one raw (uncompressed) G1 point from r.
func readG1Point(r io.Reader) (bls12381.G1Affine, error) {
	var buf [g1Size]byte
	var p bls12381.G1Affine
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return p, fmt.Errorf("read g1 point: %w", err)
	}
	if _, err := p.SetBytes(buf[:]); err != nil {
		return p, fmt.Errorf("decode g1 point: %w", err)
	}
	return p, nil
}

// readG2Point reads one raw (uncompressed) G2 point from r.
func readG2Point(r io.Reader) (bls12381.G2Affine, error) {
	var buf [g2Size]byte
	var p bls12381.G2Affine
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return p, fmt.Errorf("read g2 point: %w", err)
	}
	if _, err := p.SetBytes(buf[:]); err != nil {
		return p, fmt.Errorf("decode g2 point: %w", err)
	}
	return p, nil
}

func writeG1Point(w io.Writer, p *bls12381.G1Affine) error {
	b := p.RawBytes()
	_, err := w.Write(b[:])
	return err
}

func writeG2Point(w io.Writer, p *bls12381.G2Affine) error {
	b := p.RawBytes()
	_, err := w.Write(b[:])
	return err
}

// readG1Points parses n consecutive raw G1 points from a flat buffer,
// splitting the work across a worker pool the way the source's
// parallel chunked parsing does.
func readG1Points(buf []byte, n int) ([]bls12381.G1Affine, error) {
	if len(buf) < n*g1Size {
		return nil, fmt.Errorf("g1 buffer too short: need %d bytes, have %d", n*g1Size, len(buf))
	}
	points := make([]bls12381.G1Affine, n)
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
				off := i * g1Size
				if _, err := points[i].SetBytes(buf[off : off+g1Size]); err != nil {
					return fmt.Errorf("decode g1 point %d: %w", i, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// compareBytes reports whether the byte ranges [aOff,aOff+n) of file a
// and [bOff,bOff+n) of file b are identical. Negative offsets count
// from the end of the file, matching the consistency checker's use of
// trailing-section comparisons.
func compareBytes(aPath string, aOff int64, bPath string, bOff int64, n int64) (bool, error) {
	ab, err := readRange(aPath, aOff, n)
	if err != nil {
		return false, err
	}
	bb, err := readRange(bPath, bOff, n)
	if err != nil {
		return false, err
	}
	if len(ab) != len(bb) {
		return false, nil
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false, nil
		}
	}
	return true, nil
}

func readRange(path string, off, n int64) ([]byte, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if off < 0 {
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		off += info.Size()
		if off < 0 {
			return nil, fmt.Errorf("negative offset out of range for %s", path)
		}
	}

	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("read %s at %d: %w", path, off, err)
	}
	return buf, nil
}
