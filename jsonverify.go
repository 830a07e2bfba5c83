// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// jsonverify.go reconstructs a Groth16 verification from the exported JSON
// artifacts (vk.json, proof.json, public.json), checking the pairing
// equation e(A,B) == e(alpha,beta) * e(vk_x,gamma) * e(C,delta) directly
// with gnark-crypto. It guards the JSON export path: any drift between the
// binary and JSON encodings shows up here.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func parseG1CompressedHex(h string) (bn254.G1Affine, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return bn254.G1Affine{}, fmt.Errorf("decode G1 hex: %w", err)
	}
	var p bn254.G1Affine
	if _, err := p.SetBytes(raw); err != nil {
		return bn254.G1Affine{}, fmt.Errorf("G1.SetBytes: %w", err)
	}
	return p, nil
}

func parseG2CompressedHex(h string) (bn254.G2Affine, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return bn254.G2Affine{}, fmt.Errorf("decode G2 hex: %w", err)
	}
	var p bn254.G2Affine
	if _, err := p.SetBytes(raw); err != nil {
		return bn254.G2Affine{}, fmt.Errorf("G2.SetBytes: %w", err)
	}
	return p, nil
}

func readJSONFile(dir, name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}

// computeVkX folds the public inputs into the IC elements. The exported
// input vector carries the constant one-wire at index 0, so
// vk_x = sum over i of inputs[i] * IC[i].
func computeVkX(ic []bn254.G1Affine, inputs []string) (bn254.G1Affine, error) {
	var vkx bn254.G1Affine
	if len(inputs) != len(ic) {
		return vkx, fmt.Errorf("input/IC length mismatch: %d inputs, %d IC elements", len(inputs), len(ic))
	}

	for i, in := range inputs {
		var s fr.Element
		if _, err := s.SetString(in); err != nil {
			return vkx, fmt.Errorf("parse input[%d]: %w", i, err)
		}
		var sBig big.Int
		s.BigInt(&sBig)

		var term bn254.G1Affine
		term.ScalarMultiplication(&ic[i], &sBig)
		if i == 0 {
			vkx = term
		} else {
			vkx.Add(&vkx, &term)
		}
	}
	return vkx, nil
}

// verifyExportedJSON loads the three JSON files from dir and checks the
// Groth16 pairing equation.
func verifyExportedJSON(dir string) error {
	var vkJSON VKJSON
	if err := readJSONFile(dir, "vk.json", &vkJSON); err != nil {
		return err
	}
	var proofJSON ProofJSON
	if err := readJSONFile(dir, "proof.json", &proofJSON); err != nil {
		return err
	}
	var publicJSON PublicJSON
	if err := readJSONFile(dir, "public.json", &publicJSON); err != nil {
		return err
	}

	a, err := parseG1CompressedHex(proofJSON.PiA)
	if err != nil {
		return fmt.Errorf("parse piA: %w", err)
	}
	b, err := parseG2CompressedHex(proofJSON.PiB)
	if err != nil {
		return fmt.Errorf("parse piB: %w", err)
	}
	c, err := parseG1CompressedHex(proofJSON.PiC)
	if err != nil {
		return fmt.Errorf("parse piC: %w", err)
	}

	alpha, err := parseG1CompressedHex(vkJSON.VkAlpha)
	if err != nil {
		return fmt.Errorf("parse vkAlpha: %w", err)
	}
	beta, err := parseG2CompressedHex(vkJSON.VkBeta)
	if err != nil {
		return fmt.Errorf("parse vkBeta: %w", err)
	}
	gamma, err := parseG2CompressedHex(vkJSON.VkGamma)
	if err != nil {
		return fmt.Errorf("parse vkGamma: %w", err)
	}
	delta, err := parseG2CompressedHex(vkJSON.VkDelta)
	if err != nil {
		return fmt.Errorf("parse vkDelta: %w", err)
	}

	ic := make([]bn254.G1Affine, len(vkJSON.VkIC))
	for i, icHex := range vkJSON.VkIC {
		p, err := parseG1CompressedHex(icHex)
		if err != nil {
			return fmt.Errorf("parse IC[%d]: %w", i, err)
		}
		ic[i] = p
	}

	// public.json omits the constant one-wire when the IC already accounts
	// for it; restore it so inputs and IC line up index for index.
	inputs := publicJSON.Inputs
	if len(inputs) == len(ic)-1 {
		inputs = append([]string{"1"}, inputs...)
	}
	vkx, err := computeVkX(ic, inputs)
	if err != nil {
		return err
	}

	left, err := bn254.Pair([]bn254.G1Affine{a}, []bn254.G2Affine{b})
	if err != nil {
		return fmt.Errorf("pair(A,B): %w", err)
	}
	right, err := bn254.Pair(
		[]bn254.G1Affine{alpha, vkx, c},
		[]bn254.G2Affine{beta, gamma, delta},
	)
	if err != nil {
		return fmt.Errorf("pair(alpha|vk_x|C): %w", err)
	}

	if !left.Equal(&right) {
		return fmt.Errorf("pairing check failed: exported proof does not verify against exported vk and public inputs")
	}
	return nil
}
