// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// cli_inprocess_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_NoArgs(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{}, &out, &err)
	if code != 2 {
		t.Fatalf("want 2 got %d", code)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"wat"}, &out, &err)
	if code != 2 {
		t.Fatalf("want 2 got %d", code)
	}
	if !strings.Contains(err.String(), "unknown command") {
		t.Fatalf("unexpected stderr: %q", err.String())
	}
}

func TestRun_Validate_MissingFlags(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"validate"}, &out, &err)
	if code != 2 {
		t.Fatalf("want 2 got %d", code)
	}
	if !strings.Contains(err.String(), "error: -puzzle and -solution are required") {
		t.Fatalf("unexpected stderr: %q", err.String())
	}
}

func TestRun_Validate_Success(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{
		"validate",
		"-puzzle", gridArgJSON(t, testPuzzleRows()),
		"-solution", gridArgJSON(t, testSolutionRows()),
	}, &out, &err)
	if code != 0 {
		t.Fatalf("want 0 got %d stderr=%q", code, err.String())
	}
	if strings.TrimSpace(out.String()) != "VALID" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
}

func TestRun_Validate_FromFiles(t *testing.T) {
	puzzlePath := mustWriteGridFile(t, testPuzzleRows())
	solutionPath := mustWriteGridFile(t, testSolutionRows())

	var out, err bytes.Buffer
	code := run([]string{
		"validate",
		"-puzzle", "@" + puzzlePath,
		"-solution", "@" + solutionPath,
	}, &out, &err)
	if code != 0 {
		t.Fatalf("want 0 got %d stderr=%q", code, err.String())
	}
}

func TestRun_Validate_WrongSolutionExits1(t *testing.T) {
	rows := testSolutionRows()
	rows[0][2] = 5

	var out, err bytes.Buffer
	code := run([]string{
		"validate",
		"-puzzle", gridArgJSON(t, testPuzzleRows()),
		"-solution", gridArgJSON(t, rows),
	}, &out, &err)
	if code != 1 {
		t.Fatalf("want 1 got %d", code)
	}
	if !strings.Contains(err.String(), "INVALID:") {
		t.Fatalf("unexpected stderr: %q", err.String())
	}
}

func TestRun_Validate_MalformedGridExits2(t *testing.T) {
	rows := testSolutionRows()
	rows[4] = rows[4][:5]

	var out, err bytes.Buffer
	code := run([]string{
		"validate",
		"-puzzle", gridArgJSON(t, testPuzzleRows()),
		"-solution", gridArgJSON(t, rows),
	}, &out, &err)
	if code != 2 {
		t.Fatalf("malformed input is a usage error: want 2 got %d", code)
	}
	if !strings.Contains(err.String(), "malformed solution grid") {
		t.Fatalf("unexpected stderr: %q", err.String())
	}
}

func TestRun_Prove_MissingFlags(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"prove", "-puzzle", "[[0]]"}, &out, &err)
	if code != 2 {
		t.Fatalf("want 2 got %d", code)
	}
	if !strings.Contains(err.String(), "error: -puzzle and -solution are required") {
		t.Fatalf("unexpected stderr: %q", err.String())
	}
}

func TestRun_Verify_MissingArtifactsExits1(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"verify", "-dir", filepath.Join(t.TempDir(), "nope")}, &out, &err)
	if code != 1 {
		t.Fatalf("want 1 got %d", code)
	}
}

func TestRun_Reexport_MissingArtifactsExits1(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"reexport", "-dir", filepath.Join(t.TempDir(), "nope")}, &out, &err)
	if code != 1 {
		t.Fatalf("want 1 got %d", code)
	}
}

func TestRun_Vkey_MissingSetupExits1(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"vkey", "-dir", filepath.Join(t.TempDir(), "nope")}, &out, &err)
	if code != 1 {
		t.Fatalf("want 1 got %d", code)
	}
}

func TestRun_Ceremony_NoSubcommand(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"ceremony"}, &out, &err)
	if code != 2 {
		t.Fatalf("want 2 got %d", code)
	}
}

func TestRun_Ceremony_FinalizeNeedsBeacon(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"ceremony", "finalize", "-dir", t.TempDir()}, &out, &err)
	if code != 2 {
		t.Fatalf("want 2 got %d", code)
	}
	if !strings.Contains(err.String(), "error: -beacon is required") {
		t.Fatalf("unexpected stderr: %q", err.String())
	}
}

func TestRun_Ceremony_BeaconMustBeHex(t *testing.T) {
	var out, err bytes.Buffer
	code := run([]string{"ceremony", "finalize", "-dir", t.TempDir(), "-beacon", "not-hex"}, &out, &err)
	if code != 2 {
		t.Fatalf("want 2 got %d", code)
	}
	if !strings.Contains(err.String(), "could not parse -beacon") {
		t.Fatalf("unexpected stderr: %q", err.String())
	}
}

func TestRun_SetupProveVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping proof CLI flow in -short mode (runs gnark setup + proof generation)")
	}

	setupDir := filepath.Join(t.TempDir(), "setup")
	outDir := filepath.Join(t.TempDir(), "out")

	var out, errBuf bytes.Buffer
	code := run([]string{"setup", "-dir", setupDir}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("setup: want 0 got %d stderr=%q", code, errBuf.String())
	}

	out.Reset()
	errBuf.Reset()
	code = run([]string{
		"prove",
		"-puzzle", gridArgJSON(t, testPuzzleRows()),
		"-solution", gridArgJSON(t, testSolutionRows()),
		"-setup", setupDir,
		"-out", outDir,
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("prove: want 0 got %d stderr=%q", code, errBuf.String())
	}
	if !strings.Contains(out.String(), "SUCCESS: proof verified") {
		t.Fatalf("unexpected prove stdout: %q", out.String())
	}

	for _, args := range [][]string{
		{"verify", "-dir", outDir},
		{"verify", "-dir", outDir, "-json"},
	} {
		out.Reset()
		errBuf.Reset()
		code = run(args, &out, &errBuf)
		if code != 0 {
			t.Fatalf("%v: want 0 got %d stderr=%q", args, code, errBuf.String())
		}
	}

	// lose the JSON artifacts, then recover them from the native files
	if err := os.Remove(filepath.Join(outDir, "public.json")); err != nil {
		t.Fatalf("remove public.json: %v", err)
	}
	out.Reset()
	errBuf.Reset()
	code = run([]string{"reexport", "-dir", outDir}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("reexport: want 0 got %d stderr=%q", code, errBuf.String())
	}

	out.Reset()
	errBuf.Reset()
	code = run([]string{"verify", "-dir", outDir, "-json"}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("verify -json after reexport: want 0 got %d stderr=%q", code, errBuf.String())
	}

	out.Reset()
	errBuf.Reset()
	code = run([]string{"vkey", "-dir", setupDir}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("vkey: want 0 got %d stderr=%q", code, errBuf.String())
	}
	if !reSha256Hex.MatchString(strings.TrimSpace(out.String())) {
		t.Fatalf("vkey output not 64-hex: %q", out.String())
	}

	solPath := filepath.Join(t.TempDir(), "Verifier.sol")
	out.Reset()
	errBuf.Reset()
	code = run([]string{"export-verifier", "-setup", setupDir, "-out", solPath}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("export-verifier: want 0 got %d stderr=%q", code, errBuf.String())
	}
	if _, err := os.Stat(solPath); err != nil {
		t.Fatalf("verifier contract missing: %v", err)
	}
}
