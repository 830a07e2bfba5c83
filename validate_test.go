// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// validate_test.go
package main

import (
	"errors"
	"strings"
	"testing"
)

// ---------- shared fixtures ----------

// testPuzzleRows returns a well-known challenge grid; 0 marks a blank cell.
func testPuzzleRows() [][]int {
	return [][]int{
		{5, 3, 0, 0, 7, 0, 0, 0, 0},
		{6, 0, 0, 1, 9, 5, 0, 0, 0},
		{0, 9, 8, 0, 0, 0, 0, 6, 0},
		{8, 0, 0, 0, 6, 0, 0, 0, 3},
		{4, 0, 0, 8, 0, 3, 0, 0, 1},
		{7, 0, 0, 0, 2, 0, 0, 0, 6},
		{0, 6, 0, 0, 0, 0, 2, 8, 0},
		{0, 0, 0, 4, 1, 9, 0, 0, 5},
		{0, 0, 0, 0, 8, 0, 0, 7, 9},
	}
}

// testSolutionRows returns the unique solution of testPuzzleRows.
func testSolutionRows() [][]int {
	return [][]int{
		{5, 3, 4, 6, 7, 8, 9, 1, 2},
		{6, 7, 2, 1, 9, 5, 3, 4, 8},
		{1, 9, 8, 3, 4, 2, 5, 6, 7},
		{8, 5, 9, 7, 6, 1, 4, 2, 3},
		{4, 2, 6, 8, 5, 3, 7, 9, 1},
		{7, 1, 3, 9, 2, 4, 8, 5, 6},
		{9, 6, 1, 5, 3, 7, 2, 8, 4},
		{2, 8, 7, 4, 1, 9, 6, 3, 5},
		{3, 4, 5, 2, 8, 6, 1, 7, 9},
	}
}

func mustGrid(t *testing.T, rows [][]int, kind GridKind) Grid {
	t.Helper()
	g, err := GridFromRows(rows, kind)
	if err != nil {
		t.Fatalf("GridFromRows(%s) failed: %v", kind, err)
	}
	return g
}

func testPuzzle(t *testing.T) Grid {
	t.Helper()
	return mustGrid(t, testPuzzleRows(), PuzzleGrid)
}

func testSolution(t *testing.T) Grid {
	t.Helper()
	return mustGrid(t, testSolutionRows(), SolutionGrid)
}

func assertRuleError(t *testing.T, err error, wantRule string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a %s rule error, got nil", wantRule)
	}
	if !errors.Is(err, ErrInvalidSolution) {
		t.Fatalf("error does not wrap ErrInvalidSolution: %v", err)
	}
	var re *RuleError
	if !errors.As(err, &re) {
		t.Fatalf("error is not a *RuleError: %v", err)
	}
	if re.Rule != wantRule {
		t.Fatalf("wrong rule: got %q want %q (err=%v)", re.Rule, wantRule, err)
	}
}

// ---------- tests: GridFromRows shape enforcement ----------

func TestGridFromRows_Valid(t *testing.T) {
	puzzle := testPuzzle(t)
	solution := testSolution(t)

	if puzzle[0][0] != 5 || puzzle[0][2] != 0 {
		t.Fatalf("puzzle cells decoded wrong: %v", puzzle[0])
	}
	if solution[8][8] != 9 {
		t.Fatalf("solution cell decoded wrong: %v", solution[8])
	}
}

func TestGridFromRows_ShapeErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func([][]int) [][]int
		kind   GridKind
		want   string
	}{
		{
			name:   "too few rows",
			mutate: func(rows [][]int) [][]int { return rows[:8] },
			kind:   PuzzleGrid,
			want:   "expected 9 rows, got 8",
		},
		{
			name:   "too many rows",
			mutate: func(rows [][]int) [][]int { return append(rows, rows[0]) },
			kind:   PuzzleGrid,
			want:   "expected 9 rows, got 10",
		},
		{
			name: "short row",
			mutate: func(rows [][]int) [][]int {
				rows[3] = rows[3][:5]
				return rows
			},
			kind: PuzzleGrid,
			want: "row 3: expected 9 cells, got 5",
		},
		{
			name: "value above range",
			mutate: func(rows [][]int) [][]int {
				rows[2][4] = 10
				return rows
			},
			kind: PuzzleGrid,
			want: "value 10 out of range",
		},
		{
			name: "negative value",
			mutate: func(rows [][]int) [][]int {
				rows[0][0] = -1
				return rows
			},
			kind: PuzzleGrid,
			want: "value -1 out of range",
		},
		{
			name: "zero in solution grid",
			mutate: func(rows [][]int) [][]int {
				rows[4][4] = 0
				return rows
			},
			kind: SolutionGrid,
			want: "value 0 out of range [1,9]",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := testPuzzleRows()
			if tc.kind == SolutionGrid {
				rows = testSolutionRows()
			}
			_, err := GridFromRows(tc.mutate(rows), tc.kind)
			if err == nil {
				t.Fatalf("expected shape error")
			}
			var se *ShapeError
			if !errors.As(err, &se) {
				t.Fatalf("expected *ShapeError, got %T: %v", err, err)
			}
			if errors.Is(err, ErrInvalidSolution) {
				t.Fatalf("shape error must not wrap ErrInvalidSolution: %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.want)
			}
		})
	}
}

func TestGridFromRows_PuzzleAllowsZero(t *testing.T) {
	rows := make([][]int, GridSize)
	for r := range rows {
		rows[r] = make([]int, GridSize)
	}
	if _, err := GridFromRows(rows, PuzzleGrid); err != nil {
		t.Fatalf("all-blank puzzle should be well-formed: %v", err)
	}
	if _, err := GridFromRows(rows, SolutionGrid); err == nil {
		t.Fatalf("all-zero solution should be malformed")
	}
}

func TestGridRows_RoundTrip(t *testing.T) {
	g := testSolution(t)
	rows := g.Rows()
	back := mustGrid(t, rows, SolutionGrid)
	if back != g {
		t.Fatalf("Rows round trip changed the grid")
	}
}

// ---------- tests: Validate ----------

func TestValidate_CanonicalSolution(t *testing.T) {
	puzzle := testPuzzle(t)
	solution := testSolution(t)

	if err := Validate(puzzle, solution); err != nil {
		t.Fatalf("canonical solution rejected: %v", err)
	}
	if !IsValid(puzzle, solution) {
		t.Fatalf("IsValid disagrees with Validate")
	}
	// Validate is pure; a second call must agree.
	if err := Validate(puzzle, solution); err != nil {
		t.Fatalf("second Validate call rejected: %v", err)
	}
}

func TestValidate_EmptyPuzzleAnyValidSolution(t *testing.T) {
	var empty Grid
	solution := testSolution(t)
	if err := Validate(empty, solution); err != nil {
		t.Fatalf("valid solution rejected against blank puzzle: %v", err)
	}
}

func TestValidate_GivensViolation(t *testing.T) {
	rows := testPuzzleRows()
	rows[0][0] = 6 // solution has 5 here
	puzzle := mustGrid(t, rows, PuzzleGrid)
	solution := testSolution(t)

	err := Validate(puzzle, solution)
	assertRuleError(t, err, RuleGivens)
	if !strings.Contains(err.Error(), "cell [0][0]") {
		t.Fatalf("expected offending cell in message, got %q", err.Error())
	}
}

func TestValidate_RowViolation(t *testing.T) {
	rows := testSolutionRows()
	// [0][2] is blank in the puzzle; 5 duplicates [0][0] within the row
	rows[0][2] = 5
	solution := mustGrid(t, rows, SolutionGrid)

	assertRuleError(t, Validate(testPuzzle(t), solution), RuleRow)
}

func TestValidate_ColumnViolation(t *testing.T) {
	rows := testSolutionRows()
	// swapping two blank cells inside row 1 keeps the row a permutation
	// but duplicates values in columns 1 and 2
	rows[1][1], rows[1][2] = rows[1][2], rows[1][1]
	solution := mustGrid(t, rows, SolutionGrid)

	assertRuleError(t, Validate(testPuzzle(t), solution), RuleColumn)
}

func TestValidate_BoxViolation(t *testing.T) {
	// row i is 1..9 rotated by i: every row and column is a permutation,
	// but each 3x3 box repeats values
	rows := make([][]int, GridSize)
	for r := 0; r < GridSize; r++ {
		rows[r] = make([]int, GridSize)
		for c := 0; c < GridSize; c++ {
			rows[r][c] = (r+c)%GridSize + 1
		}
	}
	solution := mustGrid(t, rows, SolutionGrid)

	var empty Grid
	assertRuleError(t, Validate(empty, solution), RuleBox)
}

func TestValidate_GivensCheckedFirst(t *testing.T) {
	// break both a given and a row; the givens error must win
	rows := testSolutionRows()
	rows[0][0] = 3 // given cell, also duplicates [0][1]
	solution := mustGrid(t, rows, SolutionGrid)

	assertRuleError(t, Validate(testPuzzle(t), solution), RuleGivens)
}

// ---------- tests: internal group logic ----------

func TestCheckGivens_IgnoresBlanks(t *testing.T) {
	var empty Grid
	if err := checkGivens(empty, testSolution(t)); err != nil {
		t.Fatalf("blank puzzle must impose no givens: %v", err)
	}
}

func TestCheckGivens_DetectsMismatch(t *testing.T) {
	rows := testPuzzleRows()
	rows[0][0] = 9 // solution has 5 here
	puzzle := mustGrid(t, rows, PuzzleGrid)

	assertRuleError(t, checkGivens(puzzle, testSolution(t)), RuleGivens)
}

func TestCheckGroup_Permutations(t *testing.T) {
	good := [GridSize]uint8{9, 8, 7, 6, 5, 4, 3, 2, 1}
	if err := checkGroup(good, RuleRow, 0); err != nil {
		t.Fatalf("descending permutation rejected: %v", err)
	}

	dup := [GridSize]uint8{1, 2, 3, 4, 5, 6, 7, 8, 8}
	assertRuleError(t, checkGroup(dup, RuleRow, 4), RuleRow)

	zero := [GridSize]uint8{0, 2, 3, 4, 5, 6, 7, 8, 9}
	assertRuleError(t, checkGroup(zero, RuleColumn, 2), RuleColumn)
}

func BenchmarkValidate(b *testing.B) {
	var puzzle, solution Grid
	pr, sr := testPuzzleRows(), testSolutionRows()
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			puzzle[r][c] = uint8(pr[r][c])
			solution[r][c] = uint8(sr[r][c])
		}
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := Validate(puzzle, solution); err != nil {
			b.Fatal(err)
		}
	}
}
