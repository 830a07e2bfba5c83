// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// validate.go implements the native Sudoku constraint checks. This is the
// computation the proving circuit attests to, so it must stay pure: two
// fixed-size grids in, a verdict out, nothing else. The checks run over
// stack arrays only and complete in a fixed O(81) bound.
package main

import (
	"errors"
	"fmt"
)

const (
	// GridSize is the edge length of the board.
	GridSize = 9
	// BoxSize is the edge length of one 3x3 sub-grid.
	BoxSize = 3
)

// Grid is a 9x9 Sudoku board. In a puzzle grid, 0 marks a blank cell; a
// solution grid carries no blanks.
type Grid [GridSize][GridSize]uint8

// GridKind selects the cell value range GridFromRows enforces.
type GridKind int

const (
	// PuzzleGrid allows cells in [0,9], 0 meaning blank.
	PuzzleGrid GridKind = iota
	// SolutionGrid requires cells in [1,9].
	SolutionGrid
)

func (k GridKind) String() string {
	if k == PuzzleGrid {
		return "puzzle"
	}
	return "solution"
}

// ShapeError reports malformed input: a grid that is not 9x9, or a cell
// value outside the range its kind allows. It signals a bad request, not a
// wrong answer, and is never folded into an "invalid solution" verdict.
type ShapeError struct {
	Kind GridKind
	Msg  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("malformed %s grid: %s", e.Kind, e.Msg)
}

// Rule names, in checking order.
const (
	RuleGivens = "givens"
	RuleRow    = "row"
	RuleColumn = "column"
	RuleBox    = "box"
)

// ErrInvalidSolution is the sentinel every RuleError wraps.
var ErrInvalidSolution = errors.New("invalid solution")

// RuleError reports a well-formed solution that violates one of the four
// Sudoku rule classes.
type RuleError struct {
	Rule string
	Msg  string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s constraint violated: %s", e.Rule, e.Msg)
}

func (e *RuleError) Unwrap() error { return ErrInvalidSolution }

// GridFromRows normalizes a decoded JSON grid into a Grid, enforcing shape
// and value range. Any violation yields a *ShapeError.
func GridFromRows(rows [][]int, kind GridKind) (Grid, error) {
	var g Grid
	if len(rows) != GridSize {
		return g, &ShapeError{Kind: kind, Msg: fmt.Sprintf("expected %d rows, got %d", GridSize, len(rows))}
	}
	lo := 1
	if kind == PuzzleGrid {
		lo = 0
	}
	for r, row := range rows {
		if len(row) != GridSize {
			return g, &ShapeError{Kind: kind, Msg: fmt.Sprintf("row %d: expected %d cells, got %d", r, GridSize, len(row))}
		}
		for c, v := range row {
			if v < lo || v > GridSize {
				return g, &ShapeError{Kind: kind, Msg: fmt.Sprintf("cell [%d][%d]: value %d out of range [%d,%d]", r, c, v, lo, GridSize)}
			}
			g[r][c] = uint8(v)
		}
	}
	return g, nil
}

// Rows converts a Grid back to the wire representation.
func (g Grid) Rows() [][]int {
	rows := make([][]int, GridSize)
	for r := 0; r < GridSize; r++ {
		rows[r] = make([]int, GridSize)
		for c := 0; c < GridSize; c++ {
			rows[r][c] = int(g[r][c])
		}
	}
	return rows
}

// checkGivens requires every non-zero puzzle cell to reappear unchanged in
// the solution.
func checkGivens(puzzle, solution Grid) error {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if puzzle[r][c] != 0 && puzzle[r][c] != solution[r][c] {
				return &RuleError{
					Rule: RuleGivens,
					Msg:  fmt.Sprintf("cell [%d][%d] is given as %d but solved as %d", r, c, puzzle[r][c], solution[r][c]),
				}
			}
		}
	}
	return nil
}

// checkGroup requires nine cells to form a permutation of 1..9. The seen
// array also catches 0 and out-of-range values in hand-built grids.
func checkGroup(vals [GridSize]uint8, rule string, index int) error {
	var seen [GridSize + 1]bool
	for _, v := range vals {
		if v == 0 || v > GridSize || seen[v] {
			return &RuleError{
				Rule: rule,
				Msg:  fmt.Sprintf("%s %d is not a permutation of 1..9", rule, index),
			}
		}
		seen[v] = true
	}
	return nil
}

// Validate decides whether solution correctly solves puzzle. It returns nil
// for a correct solution and a *RuleError (wrapping ErrInvalidSolution)
// naming the first violated constraint otherwise. Checking order: givens,
// rows, columns, boxes. Both grids are read-only; concurrent calls are safe.
func Validate(puzzle, solution Grid) error {
	if err := checkGivens(puzzle, solution); err != nil {
		return err
	}

	for r := 0; r < GridSize; r++ {
		if err := checkGroup(solution[r], RuleRow, r); err != nil {
			return err
		}
	}

	for c := 0; c < GridSize; c++ {
		var col [GridSize]uint8
		for r := 0; r < GridSize; r++ {
			col[r] = solution[r][c]
		}
		if err := checkGroup(col, RuleColumn, c); err != nil {
			return err
		}
	}

	for b := 0; b < GridSize; b++ {
		var box [GridSize]uint8
		baseR := (b / BoxSize) * BoxSize
		baseC := (b % BoxSize) * BoxSize
		for i := 0; i < GridSize; i++ {
			box[i] = solution[baseR+i/BoxSize][baseC+i%BoxSize]
		}
		if err := checkGroup(box, RuleBox, b); err != nil {
			return err
		}
	}

	return nil
}

// IsValid is the boolean form of Validate.
func IsValid(puzzle, solution Grid) bool {
	return Validate(puzzle, solution) == nil
}
