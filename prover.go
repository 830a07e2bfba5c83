// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// prover.go orchestrates the proving workflow: one-time setup, witness
// construction with the solution kept secret, proof generation, immediate
// re-verification, and artifact export. The native validator runs first so
// no proving cost is ever spent on a wrong or malformed answer.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// RunSetup compiles the Sudoku circuit, runs the Groth16 setup, and writes
// ccs.bin / pk.bin / vk.bin plus vk.json to dir. NB! A production deployment
// should obtain pk/vk from the MPC ceremony instead; plain Setup is for
// development and tests.
func RunSetup(dir string, force bool) error {
	if SetupFilesExist(dir) && !force {
		return fmt.Errorf("setup files already present in %s (use -force to overwrite)", dir)
	}

	ccs, err := CompileSudokuCircuit()
	if err != nil {
		return err
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("groth16 setup: %w", err)
	}

	if err := SaveSetupFiles(ccs, pk, vk, dir); err != nil {
		return err
	}
	return ExportVKOnly(vk, dir)
}

// ensureSetup loads the setup artifacts from dir, creating them first when
// missing.
func ensureSetup(dir string) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey, error) {
	if !SetupFilesExist(dir) {
		if err := RunSetup(dir, false); err != nil {
			return nil, nil, nil, err
		}
	}
	return LoadSetupFiles(dir)
}

// ProveSolution validates the pair natively, then generates and verifies a
// Groth16 proof that the (undisclosed) solution solves the puzzle. Native
// and JSON artifacts are written to outDir.
func ProveSolution(puzzle, solution Grid, setupDir, outDir string) error {
	if err := Validate(puzzle, solution); err != nil {
		return fmt.Errorf("refusing to prove: %w", err)
	}

	ccs, pk, vk, err := ensureSetup(setupDir)
	if err != nil {
		return err
	}

	assignment := newSudokuAssignment(puzzle, solution)
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("new witness: %w", err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return fmt.Errorf("public witness: %w", err)
	}

	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return fmt.Errorf("prove: %w", err)
	}
	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if err := SaveNativeFiles(vk, proof, publicWitness, outDir); err != nil {
		return err
	}
	return ExportAll(vk, proof, publicWitness, puzzle, outDir)
}

// ExportSolidityVerifier writes a Solidity Groth16 verifier contract for the
// verifying key in setupDir.
func ExportSolidityVerifier(setupDir, outPath string) error {
	vkFile, err := os.Open(filepath.Join(setupDir, "vk.bin"))
	if err != nil {
		return fmt.Errorf("open vk.bin: %w", err)
	}
	defer vkFile.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return fmt.Errorf("read vk.bin: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	if err := vk.ExportSolidity(f); err != nil {
		return fmt.Errorf("export solidity verifier: %w", err)
	}
	return nil
}

// VKFingerprint returns the SHA-256 of vk.bin in setupDir as a hex string, a
// stable identifier for the deployed verifying key.
func VKFingerprint(setupDir string) (string, error) {
	return fileHash(filepath.Join(setupDir, "vk.bin"))
}
