// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// circuit.go mirrors the native validator inside the proving system. The
// challenge grid is public, the solution grid stays secret; a valid proof
// therefore convinces a verifier the challenge is solved without revealing
// how. Constraints are evaluated in full, with no data-dependent branching.
package main

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// SudokuCircuit proves knowledge of a solution to a public Sudoku challenge.
type SudokuCircuit struct {
	Challenge [GridSize][GridSize]frontend.Variable `gnark:"Challenge,public"`
	Solution  [GridSize][GridSize]frontend.Variable `gnark:"Solution,secret"`
}

// Define encodes the four rule classes as constraints: cell range, row,
// column and box uniqueness, and givens consistency with the challenge.
func (c *SudokuCircuit) Define(api frontend.API) error {
	// every solution cell is in [1,9]
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			api.AssertIsLessOrEqual(1, c.Solution[i][j])
			api.AssertIsLessOrEqual(c.Solution[i][j], GridSize)
		}
	}

	// rows hold pairwise distinct values
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			for k := j + 1; k < GridSize; k++ {
				api.AssertIsDifferent(c.Solution[i][j], c.Solution[i][k])
			}
		}
	}

	// columns hold pairwise distinct values
	for j := 0; j < GridSize; j++ {
		for i := 0; i < GridSize; i++ {
			for k := i + 1; k < GridSize; k++ {
				api.AssertIsDifferent(c.Solution[i][j], c.Solution[k][j])
			}
		}
	}

	// each 3x3 box holds pairwise distinct values
	for boxRow := 0; boxRow < BoxSize; boxRow++ {
		for boxCol := 0; boxCol < BoxSize; boxCol++ {
			for i := 0; i < GridSize; i++ {
				for j := i + 1; j < GridSize; j++ {
					r1 := boxRow*BoxSize + i/BoxSize
					c1 := boxCol*BoxSize + i%BoxSize
					r2 := boxRow*BoxSize + j/BoxSize
					c2 := boxCol*BoxSize + j%BoxSize
					api.AssertIsDifferent(c.Solution[r1][c1], c.Solution[r2][c2])
				}
			}
		}
	}

	// non-zero challenge cells must reappear unchanged in the solution
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			isBlank := api.IsZero(c.Challenge[i][j])
			api.AssertIsEqual(
				api.Select(isBlank, c.Solution[i][j], c.Challenge[i][j]),
				c.Solution[i][j],
			)
		}
	}

	return nil
}

// CompileSudokuCircuit compiles the circuit to an R1CS over BN254.
func CompileSudokuCircuit() (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &SudokuCircuit{})
	if err != nil {
		return nil, fmt.Errorf("compile sudoku circuit: %w", err)
	}
	return ccs, nil
}

// gridVariables lifts a native grid into circuit variables.
func gridVariables(g Grid) [GridSize][GridSize]frontend.Variable {
	var out [GridSize][GridSize]frontend.Variable
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			out[r][c] = g[r][c]
		}
	}
	return out
}

// newSudokuAssignment builds a full witness assignment.
func newSudokuAssignment(puzzle, solution Grid) *SudokuCircuit {
	return &SudokuCircuit{
		Challenge: gridVariables(puzzle),
		Solution:  gridVariables(solution),
	}
}

// newChallengeAssignment builds a public-only assignment for verification.
func newChallengeAssignment(puzzle Grid) *SudokuCircuit {
	return &SudokuCircuit{Challenge: gridVariables(puzzle)}
}
