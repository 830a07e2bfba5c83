//go:build js && wasm

// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// WASM entry point for browser-based validation and proving.
// This file exposes the sudokuValidate / sudokuProve functions to JavaScript.
//
// Build with:
//   GOOS=js GOARCH=wasm go build -o prover.wasm .

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// ProofResultWASM is the JSON structure returned to JavaScript
type ProofResultWASM struct {
	Proof  ProofJSON  `json:"proof"`
	Public PublicJSON `json:"public"`
}

// Global state for loaded setup files
var (
	wasmCCS    constraint.ConstraintSystem
	wasmPK     groth16.ProvingKey
	wasmLoaded bool
)

// wasmLoadSetup loads the CCS and PK from byte slices
func wasmLoadSetup(ccsBytes, pkBytes []byte) error {
	ccs := groth16.NewCS(ecc.BN254)
	if _, err := ccs.ReadFrom(bytes.NewReader(ccsBytes)); err != nil {
		return fmt.Errorf("read ccs: %w", err)
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(bytes.NewReader(pkBytes)); err != nil {
		return fmt.Errorf("read pk: %w", err)
	}

	// VK is not needed in the browser; verification happens server-side
	// or on-chain.

	wasmCCS = ccs
	wasmPK = pk
	wasmLoaded = true

	return nil
}

func parseGridJSON(raw string, kind GridKind) (Grid, error) {
	var rows [][]int
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return Grid{}, fmt.Errorf("parse grid: %w", err)
	}
	return GridFromRows(rows, kind)
}

// wasmProve validates the pair and generates a Groth16 proof
func wasmProve(boardJSON, solutionJSON string) (*ProofResultWASM, error) {
	if !wasmLoaded {
		return nil, fmt.Errorf("setup not loaded - call sudokuLoadSetup first")
	}

	puzzle, err := parseGridJSON(boardJSON, PuzzleGrid)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	solution, err := parseGridJSON(solutionJSON, SolutionGrid)
	if err != nil {
		return nil, fmt.Errorf("solution: %w", err)
	}

	if err := Validate(puzzle, solution); err != nil {
		return nil, fmt.Errorf("refusing to prove: %w", err)
	}

	assignment := newSudokuAssignment(puzzle, solution)
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("new witness: %w", err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("public witness: %w", err)
	}

	proof, err := groth16.Prove(wasmCCS, wasmPK, witness)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}

	proofJSON, err := exportProofBN254(proof)
	if err != nil {
		return nil, fmt.Errorf("export proof: %w", err)
	}

	pubRaw, err := exportPublicInputs(publicWitness)
	if err != nil {
		return nil, fmt.Errorf("export public: %w", err)
	}

	// same shape as ExportAll: the 81 challenge cells, no constant one-wire
	return &ProofResultWASM{
		Proof: proofJSON,
		Public: PublicJSON{
			Inputs:     pubRaw,
			PuzzleHash: puzzleHashHex(puzzle),
		},
	}, nil
}

// sudokuValidate is exposed to JavaScript for plain validation without proving
func sudokuValidateJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{
			"error": "sudokuValidate requires 2 arguments: boardJSON, solutionJSON",
		})
	}

	puzzle, err := parseGridJSON(args[0].String(), PuzzleGrid)
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	solution, err := parseGridJSON(args[1].String(), SolutionGrid)
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	if err := Validate(puzzle, solution); err != nil {
		return js.ValueOf(map[string]interface{}{
			"isValid": false,
			"reason":  err.Error(),
		})
	}
	return js.ValueOf(map[string]interface{}{
		"isValid": true,
	})
}

// sudokuLoadSetup is exposed to JavaScript to load the setup files
func sudokuLoadSetupJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{
			"error": "sudokuLoadSetup requires 2 arguments: ccsBytes, pkBytes",
		})
	}

	ccsArray := args[0]
	ccsBytes := make([]byte, ccsArray.Get("length").Int())
	js.CopyBytesToGo(ccsBytes, ccsArray)

	pkArray := args[1]
	pkBytes := make([]byte, pkArray.Get("length").Int())
	js.CopyBytesToGo(pkBytes, pkArray)

	fmt.Printf("Loading setup: CCS=%d bytes, PK=%d bytes\n", len(ccsBytes), len(pkBytes))

	if err := wasmLoadSetup(ccsBytes, pkBytes); err != nil {
		return js.ValueOf(map[string]interface{}{
			"error": err.Error(),
		})
	}

	fmt.Println("Setup loaded successfully")
	return js.ValueOf(map[string]interface{}{
		"success": true,
	})
}

// sudokuProve is exposed to JavaScript for proof generation
func sudokuProveJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{
			"error": "sudokuProve requires 2 arguments: boardJSON, solutionJSON",
		})
	}

	result, err := wasmProve(args[0].String(), args[1].String())
	if err != nil {
		fmt.Printf("Proof generation failed: %v\n", err)
		return js.ValueOf(map[string]interface{}{
			"error": err.Error(),
		})
	}

	fmt.Println("Proof generation successful!")

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return js.ValueOf(map[string]interface{}{
			"error": fmt.Sprintf("json marshal: %v", err),
		})
	}

	return js.ValueOf(string(jsonBytes))
}

// sudokuIsReady checks if setup has been loaded
func sudokuIsReadyJS(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(wasmLoaded)
}

// main is the entry point for WASM builds
func main() {
	fmt.Println("Sudoku WASM prover loaded")
	fmt.Println("Available functions: sudokuValidate, sudokuLoadSetup, sudokuProve, sudokuIsReady")

	js.Global().Set("sudokuValidate", js.FuncOf(sudokuValidateJS))
	js.Global().Set("sudokuLoadSetup", js.FuncOf(sudokuLoadSetupJS))
	js.Global().Set("sudokuProve", js.FuncOf(sudokuProveJS))
	js.Global().Set("sudokuIsReady", js.FuncOf(sudokuIsReadyJS))

	// Keep the Go runtime alive
	<-make(chan struct{})
}
