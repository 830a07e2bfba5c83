//go:build !(js && wasm)

// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// main.go
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// readGridArg parses a grid argument: either inline JSON rows or @path to a
// JSON file holding the rows.
func readGridArg(arg string, kind GridKind) (Grid, error) {
	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return Grid{}, err
		}
		raw = b
	}
	var rows [][]int
	if err := json.Unmarshal(raw, &rows); err != nil {
		return Grid{}, fmt.Errorf("parse grid: %w", err)
	}
	return GridFromRows(rows, kind)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "usage: zksudoku <validate|setup|prove|verify|reexport|vkey|export-verifier|ceremony|serve> [flags]")
		return 2
	}

	switch args[0] {
	case "validate":
		validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
		validateCmd.SetOutput(stderr)

		var puzzleArg, solutionArg string
		validateCmd.StringVar(&puzzleArg, "puzzle", "", "puzzle grid: JSON rows or @file (0 marks an empty cell)")
		validateCmd.StringVar(&solutionArg, "solution", "", "solution grid: JSON rows or @file")
		if err := validateCmd.Parse(args[1:]); err != nil {
			return 2
		}

		if puzzleArg == "" || solutionArg == "" {
			fmt.Fprintln(stderr, "error: -puzzle and -solution are required")
			validateCmd.Usage()
			return 2
		}

		puzzle, err := readGridArg(puzzleArg, PuzzleGrid)
		if err != nil {
			fmt.Fprintln(stderr, "error: puzzle:", err)
			return 2
		}
		solution, err := readGridArg(solutionArg, SolutionGrid)
		if err != nil {
			fmt.Fprintln(stderr, "error: solution:", err)
			return 2
		}

		if err := Validate(puzzle, solution); err != nil {
			fmt.Fprintln(stderr, "INVALID:", err)
			return 1
		}

		fmt.Fprintln(stdout, "VALID")
		return 0

	case "setup":
		setupCmd := flag.NewFlagSet("setup", flag.ContinueOnError)
		setupCmd.SetOutput(stderr)

		var dir string
		var force bool
		setupCmd.StringVar(&dir, "dir", "setup", "directory for ccs.bin / pk.bin / vk.bin")
		setupCmd.BoolVar(&force, "force", false, "overwrite an existing setup")
		if err := setupCmd.Parse(args[1:]); err != nil {
			return 2
		}

		if err := RunSetup(dir, force); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}

		fmt.Fprintln(stdout, "setup written to", dir)
		return 0

	case "prove":
		proveCmd := flag.NewFlagSet("prove", flag.ContinueOnError)
		proveCmd.SetOutput(stderr)

		var puzzleArg, solutionArg, setupDir, outDir string
		proveCmd.StringVar(&puzzleArg, "puzzle", "", "puzzle grid: JSON rows or @file (0 marks an empty cell)")
		proveCmd.StringVar(&solutionArg, "solution", "", "solution grid: JSON rows or @file")
		proveCmd.StringVar(&setupDir, "setup", "setup", "directory holding ccs.bin / pk.bin / vk.bin")
		proveCmd.StringVar(&outDir, "out", "out", "output directory for proof artifacts")
		if err := proveCmd.Parse(args[1:]); err != nil {
			return 2
		}

		if puzzleArg == "" || solutionArg == "" {
			fmt.Fprintln(stderr, "error: -puzzle and -solution are required")
			proveCmd.Usage()
			return 2
		}

		puzzle, err := readGridArg(puzzleArg, PuzzleGrid)
		if err != nil {
			fmt.Fprintln(stderr, "error: puzzle:", err)
			return 2
		}
		solution, err := readGridArg(solutionArg, SolutionGrid)
		if err != nil {
			fmt.Fprintln(stderr, "error: solution:", err)
			return 2
		}

		if err := ProveSolution(puzzle, solution, setupDir, outDir); err != nil {
			fmt.Fprintln(stderr, "FAIL:", err)
			return 1
		}

		fmt.Fprintln(stdout, "SUCCESS: proof verified, artifacts in", outDir)
		return 0

	case "verify":
		verifyCmd := flag.NewFlagSet("verify", flag.ContinueOnError)
		verifyCmd.SetOutput(stderr)

		var dir string
		var fromJSON bool
		verifyCmd.StringVar(&dir, "dir", "out", "directory holding proof artifacts")
		verifyCmd.BoolVar(&fromJSON, "json", false, "verify the exported vk.json / proof.json / public.json instead of the native files")
		if err := verifyCmd.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if fromJSON {
			err = verifyExportedJSON(dir)
		} else {
			err = VerifyFromFiles(dir)
		}
		if err != nil {
			fmt.Fprintln(stderr, "FAIL:", err)
			return 1
		}

		fmt.Fprintln(stdout, "SUCCESS: proof verified")
		return 0

	case "reexport":
		reexportCmd := flag.NewFlagSet("reexport", flag.ContinueOnError)
		reexportCmd.SetOutput(stderr)

		var dir string
		reexportCmd.StringVar(&dir, "dir", "out", "directory holding vk.bin / proof.bin / witness.bin")
		if err := reexportCmd.Parse(args[1:]); err != nil {
			return 2
		}

		if err := ReExportJSON(dir); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}

		fmt.Fprintln(stdout, "JSON artifacts rewritten in", dir)
		return 0

	case "vkey":
		vkeyCmd := flag.NewFlagSet("vkey", flag.ContinueOnError)
		vkeyCmd.SetOutput(stderr)

		var dir string
		vkeyCmd.StringVar(&dir, "dir", "setup", "directory holding vk.bin")
		if err := vkeyCmd.Parse(args[1:]); err != nil {
			return 2
		}

		fp, err := VKFingerprint(dir)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}

		fmt.Fprintln(stdout, fp)
		return 0

	case "export-verifier":
		exportCmd := flag.NewFlagSet("export-verifier", flag.ContinueOnError)
		exportCmd.SetOutput(stderr)

		var setupDir, outPath string
		exportCmd.StringVar(&setupDir, "setup", "setup", "directory holding vk.bin")
		exportCmd.StringVar(&outPath, "out", "Verifier.sol", "output path for the Solidity verifier")
		if err := exportCmd.Parse(args[1:]); err != nil {
			return 2
		}

		if err := ExportSolidityVerifier(setupDir, outPath); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}

		fmt.Fprintln(stdout, "verifier written to", outPath)
		return 0

	case "ceremony":
		return runCeremony(args[1:], stdout, stderr)

	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ContinueOnError)
		serveCmd.SetOutput(stderr)

		cfg, err := loadEnvConfig()
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 2
		}
		serveCmd.IntVar(&cfg.Port, "port", cfg.Port, "TCP port to listen on")
		serveCmd.StringVar(&cfg.SetupDir, "setup", cfg.SetupDir, "directory holding ccs.bin / pk.bin / vk.bin")
		serveCmd.StringVar(&cfg.ProofDir, "proofs", cfg.ProofDir, "directory proof job artifacts are written under")
		serveCmd.BoolVar(&cfg.UseZKP, "zkp", cfg.UseZKP, "enqueue proof generation for valid solutions")
		serveCmd.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent proving workers")
		if err := serveCmd.Parse(args[1:]); err != nil {
			return 2
		}

		if err := runServe(cfg); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		return 0

	default:
		fmt.Fprintln(stderr, "unknown command:", args[0])
		return 2
	}
}

// runCeremony dispatches the MPC ceremony subcommands.
func runCeremony(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "usage: zksudoku ceremony <init|contribute|verify|finalize> [flags]")
		return 2
	}

	ceremonyCmd := flag.NewFlagSet("ceremony "+args[0], flag.ContinueOnError)
	ceremonyCmd.SetOutput(stderr)

	var dir, beacon string
	var phase int
	var force bool
	ceremonyCmd.StringVar(&dir, "dir", "ceremony", "ceremony working directory")
	ceremonyCmd.IntVar(&phase, "phase", 1, "ceremony phase (1 or 2)")
	ceremonyCmd.StringVar(&beacon, "beacon", "", "public beacon hex for finalization")
	ceremonyCmd.BoolVar(&force, "force", false, "overwrite an existing ceremony directory")
	if err := ceremonyCmd.Parse(args[1:]); err != nil {
		return 2
	}

	switch args[0] {
	case "init":
		if err := CeremonyInit(dir, force); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		fmt.Fprintln(stdout, "ceremony initialized in", dir)
		return 0

	case "contribute":
		idx, hash, err := CeremonyContribute(dir, phase)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		fmt.Fprintf(stdout, "contribution %d written, sha256=%s\n", idx, hash)
		return 0

	case "verify":
		n, err := CeremonyVerify(dir, phase)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		fmt.Fprintf(stdout, "verified %d contribution(s) for phase %d\n", n, phase)
		return 0

	case "finalize":
		if beacon == "" {
			fmt.Fprintln(stderr, "error: -beacon is required")
			return 2
		}
		beaconBytes, err := hex.DecodeString(beacon)
		if err != nil {
			fmt.Fprintln(stderr, "error: could not parse -beacon (must be hex):", err)
			return 2
		}
		switch phase {
		case 1:
			err = CeremonyFinalizePhase1(dir, beaconBytes)
		case 2:
			err = CeremonyFinalizePhase2(dir, beaconBytes)
		default:
			fmt.Fprintln(stderr, "error: -phase must be 1 or 2")
			return 2
		}
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		fmt.Fprintf(stdout, "phase %d finalized\n", phase)
		return 0

	default:
		fmt.Fprintln(stderr, "unknown ceremony command:", args[0])
		return 2
	}
}
