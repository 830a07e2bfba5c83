// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// ceremony.go implements the multi-party computation (MPC) setup ceremony
// for the Groth16 proving system on BN254. It wraps gnark's mpcsetup
// package in a file-based workflow so the Sudoku circuit's proving and
// verifying keys never depend on a single party's randomness:
//   - Phase 1 (Powers of Tau): circuit-independent, produces SRS commons
//   - Phase 2: circuit-specific, produces the final proving and verifying keys
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	mpcsetup "github.com/consensys/gnark/backend/groth16/bn254/mpcsetup"
	"github.com/consensys/gnark/constraint"
	cs "github.com/consensys/gnark/constraint/bn254"
)

// findContributions returns sorted file paths matching phase{N}_NNNN.bin in dir.
func findContributions(dir string, phase int) ([]string, error) {
	prefix := fmt.Sprintf("phase%d_", phase)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bin") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// latestContribution returns the path and index of the highest-numbered contribution.
func latestContribution(dir string, phase int) (string, int, error) {
	paths, err := findContributions(dir, phase)
	if err != nil {
		return "", 0, err
	}
	if len(paths) == 0 {
		return "", 0, fmt.Errorf("no phase %d contributions found in %s", phase, dir)
	}
	last := paths[len(paths)-1]
	base := filepath.Base(last)
	numStr := strings.TrimPrefix(base, fmt.Sprintf("phase%d_", phase))
	numStr = strings.TrimSuffix(numStr, ".bin")
	idx, err := strconv.Atoi(numStr)
	if err != nil {
		return "", 0, fmt.Errorf("parse contribution index from %s: %w", base, err)
	}
	return last, idx, nil
}

// contributionPath returns the file path for a contribution with the given phase and index.
func contributionPath(dir string, phase, index int) string {
	return filepath.Join(dir, fmt.Sprintf("phase%d_%04d.bin", phase, index))
}

// fileHash computes the SHA-256 hash of a file and returns it as a hex string.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// --- binary I/O ---

func saveBinary(path string, v io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := v.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadBinary(path string, v io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := v.ReadFrom(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func loadR1CS(path string) (*cs.R1CS, error) {
	ccs := groth16.NewCS(ecc.BN254)
	if err := loadBinary(path, ccs); err != nil {
		return nil, err
	}
	r1cs, ok := ccs.(*cs.R1CS)
	if !ok {
		return nil, fmt.Errorf("CCS is not *bn254.R1CS: %T", ccs)
	}
	return r1cs, nil
}

// domainSize computes the FFT domain size from a constraint system.
func domainSize(ccs constraint.ConstraintSystem) uint64 {
	return ecc.NextPowerOfTwo(uint64(ccs.GetNbConstraints()))
}

// --- ceremony workflow ---

// CeremonyInit compiles the Sudoku circuit, saves ccs.bin, and creates the
// initial Phase1 accumulator.
func CeremonyInit(dir string, force bool) error {
	if _, err := os.Stat(filepath.Join(dir, "ccs.bin")); err == nil && !force {
		return fmt.Errorf("ceremony already initialized in %s (use -force to overwrite)", dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	ccs, err := CompileSudokuCircuit()
	if err != nil {
		return err
	}

	if err := saveBinary(filepath.Join(dir, "ccs.bin"), ccs); err != nil {
		return err
	}

	N := domainSize(ccs)
	p1 := mpcsetup.NewPhase1(N)
	if err := saveBinary(contributionPath(dir, 1, 0), p1); err != nil {
		return err
	}

	fmt.Printf("  constraints: %d\n", ccs.GetNbConstraints())
	fmt.Printf("  domain size: %d\n", N)
	return nil
}

// CeremonyContribute loads the latest accumulator of the given phase,
// contributes fresh randomness, and saves the next contribution. It returns
// the new contribution index and its SHA-256 hash for out-of-band
// attestation.
func CeremonyContribute(dir string, phase int) (int, string, error) {
	latestPath, idx, err := latestContribution(dir, phase)
	if err != nil {
		return 0, "", err
	}

	var next io.WriterTo
	switch phase {
	case 1:
		p := new(mpcsetup.Phase1)
		if err := loadBinary(latestPath, p); err != nil {
			return 0, "", fmt.Errorf("load latest phase1: %w", err)
		}
		p.Contribute()
		next = p
	case 2:
		p := new(mpcsetup.Phase2)
		if err := loadBinary(latestPath, p); err != nil {
			return 0, "", fmt.Errorf("load latest phase2: %w", err)
		}
		p.Contribute()
		next = p
	default:
		return 0, "", fmt.Errorf("unknown ceremony phase %d", phase)
	}

	nextIdx := idx + 1
	nextPath := contributionPath(dir, phase, nextIdx)
	if err := saveBinary(nextPath, next); err != nil {
		return 0, "", err
	}

	hash, err := fileHash(nextPath)
	if err != nil {
		return nextIdx, "", fmt.Errorf("hash contribution: %w", err)
	}

	return nextIdx, hash, nil
}

// CeremonyVerify loads all contributions of the given phase and verifies
// each successive pair. It returns the number of verified contributions.
func CeremonyVerify(dir string, phase int) (int, error) {
	paths, err := findContributions(dir, phase)
	if err != nil {
		return 0, err
	}
	if len(paths) < 2 {
		return 0, fmt.Errorf("need at least 1 contribution beyond the initial (found %d files)", len(paths))
	}

	verified := 0
	switch phase {
	case 1:
		prev := new(mpcsetup.Phase1)
		if err := loadBinary(paths[0], prev); err != nil {
			return 0, fmt.Errorf("load initial: %w", err)
		}
		for i := 1; i < len(paths); i++ {
			next := new(mpcsetup.Phase1)
			if err := loadBinary(paths[i], next); err != nil {
				return verified, fmt.Errorf("load contribution %d: %w", i, err)
			}
			if err := prev.Verify(next); err != nil {
				return verified, fmt.Errorf("contribution %d invalid: %w", i, err)
			}
			verified++
			prev = next
		}
	case 2:
		prev := new(mpcsetup.Phase2)
		if err := loadBinary(paths[0], prev); err != nil {
			return 0, fmt.Errorf("load initial: %w", err)
		}
		for i := 1; i < len(paths); i++ {
			next := new(mpcsetup.Phase2)
			if err := loadBinary(paths[i], next); err != nil {
				return verified, fmt.Errorf("load contribution %d: %w", i, err)
			}
			if err := prev.Verify(next); err != nil {
				return verified, fmt.Errorf("contribution %d invalid: %w", i, err)
			}
			verified++
			prev = next
		}
	default:
		return 0, fmt.Errorf("unknown ceremony phase %d", phase)
	}

	return verified, nil
}

// CeremonyFinalizePhase1 verifies all Phase1 contributions, seals them with
// the beacon, saves the SRS commons, and initializes Phase2.
func CeremonyFinalizePhase1(dir string, beacon []byte) error {
	r1cs, err := loadR1CS(filepath.Join(dir, "ccs.bin"))
	if err != nil {
		return fmt.Errorf("load ccs: %w", err)
	}
	N := domainSize(r1cs)

	paths, err := findContributions(dir, 1)
	if err != nil {
		return err
	}
	if len(paths) < 2 {
		return fmt.Errorf("need at least 1 contribution beyond the initial (found %d files)", len(paths))
	}

	// excluding the 0000 identity
	contributions := make([]*mpcsetup.Phase1, len(paths)-1)
	for i := 1; i < len(paths); i++ {
		p := new(mpcsetup.Phase1)
		if err := loadBinary(paths[i], p); err != nil {
			return fmt.Errorf("load phase1 contribution %d: %w", i, err)
		}
		contributions[i-1] = p
	}

	commons, err := mpcsetup.VerifyPhase1(N, beacon, contributions...)
	if err != nil {
		return fmt.Errorf("verify phase1: %w", err)
	}

	if err := saveBinary(filepath.Join(dir, "commons.bin"), &commons); err != nil {
		return err
	}

	var p2 mpcsetup.Phase2
	p2.Initialize(r1cs, &commons)
	return saveBinary(contributionPath(dir, 2, 0), &p2)
}

// CeremonyFinalizePhase2 verifies all Phase2 contributions, seals them with
// the beacon, and extracts the proving and verifying keys.
func CeremonyFinalizePhase2(dir string, beacon []byte) error {
	r1cs, err := loadR1CS(filepath.Join(dir, "ccs.bin"))
	if err != nil {
		return fmt.Errorf("load ccs: %w", err)
	}

	commons := new(mpcsetup.SrsCommons)
	if err := loadBinary(filepath.Join(dir, "commons.bin"), commons); err != nil {
		return fmt.Errorf("load commons: %w", err)
	}

	paths, err := findContributions(dir, 2)
	if err != nil {
		return err
	}
	if len(paths) < 2 {
		return fmt.Errorf("need at least 1 contribution beyond the initial (found %d files)", len(paths))
	}

	contributions := make([]*mpcsetup.Phase2, len(paths)-1)
	for i := 1; i < len(paths); i++ {
		p := new(mpcsetup.Phase2)
		if err := loadBinary(paths[i], p); err != nil {
			return fmt.Errorf("load phase2 contribution %d: %w", i, err)
		}
		contributions[i-1] = p
	}

	pk, vk, err := mpcsetup.VerifyPhase2(r1cs, commons, beacon, contributions...)
	if err != nil {
		return fmt.Errorf("verify phase2: %w", err)
	}

	if err := saveBinary(filepath.Join(dir, "pk.bin"), pk); err != nil {
		return err
	}
	if err := saveBinary(filepath.Join(dir, "vk.bin"), vk); err != nil {
		return err
	}

	// vk.json for off-chain verifiers
	return ExportVKOnly(vk, dir)
}
