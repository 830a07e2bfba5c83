// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only
//
// export.go

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/blake2b"

	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	backend_witness "github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
)

// puzzleDomainTag is appended to the grid bytes before hashing so the puzzle
// commitment cannot collide with other blake2b uses of the same bytes.
const puzzleDomainTag = "zksudoku|puzzle|v1"

// ---------- JSON shapes ----------

type VKJSON struct {
	NPublic int      `json:"nPublic"`
	VkAlpha string   `json:"vkAlpha"` // G1 compressed hex
	VkBeta  string   `json:"vkBeta"`  // G2 compressed hex
	VkGamma string   `json:"vkGamma"` // G2 compressed hex
	VkDelta string   `json:"vkDelta"` // G2 compressed hex
	VkIC    []string `json:"vkIC"`    // list of G1 compressed hex (len = nPublic+1)
}

type ProofJSON struct {
	PiA string `json:"piA"` // G1 compressed hex
	PiB string `json:"piB"` // G2 compressed hex
	PiC string `json:"piC"` // G1 compressed hex
}

type PublicJSON struct {
	Inputs     []string `json:"inputs"`               // decimal strings in Fr
	PuzzleHash string   `json:"puzzleHash,omitempty"` // blake2b-224 puzzle commitment, hex
}

// ---------- compression helpers ----------

func g1CompressedHex(p bn254.G1Affine) (string, error) {
	b := p.Bytes() // 32 bytes compressed
	if len(b) != 32 {
		return "", fmt.Errorf("unexpected G1 compressed length: %d", len(b))
	}
	return hex.EncodeToString(b[:]), nil
}

func g2CompressedHex(p bn254.G2Affine) (string, error) {
	b := p.Bytes() // 64 bytes compressed
	if len(b) != 64 {
		return "", fmt.Errorf("unexpected G2 compressed length: %d", len(b))
	}
	return hex.EncodeToString(b[:]), nil
}

// puzzleHashHex commits to a puzzle grid: blake2b-224 over the 81 cell bytes
// in row-major order followed by the domain tag.
func puzzleHashHex(puzzle Grid) string {
	h, _ := blake2b.New(28, nil)
	for r := 0; r < GridSize; r++ {
		_, _ = h.Write(puzzle[r][:])
	}
	_, _ = h.Write([]byte(puzzleDomainTag))
	return hex.EncodeToString(h.Sum(nil))
}

// ---------- extract proof/vk using concrete BN254 Groth16 types ----------

func exportProofBN254(proof groth16.Proof) (ProofJSON, error) {
	p, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return ProofJSON{}, fmt.Errorf("unexpected proof type (need *groth16/bn254.Proof): %T", proof)
	}

	piA, err := g1CompressedHex(p.Ar)
	if err != nil {
		return ProofJSON{}, err
	}
	piB, err := g2CompressedHex(p.Bs)
	if err != nil {
		return ProofJSON{}, err
	}
	piC, err := g1CompressedHex(p.Krs)
	if err != nil {
		return ProofJSON{}, err
	}

	return ProofJSON{PiA: piA, PiB: piB, PiC: piC}, nil
}

func exportVKBN254(vk groth16.VerifyingKey, nPublic int) (VKJSON, error) {
	v, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return VKJSON{}, fmt.Errorf("unexpected vk type (need *groth16/bn254.VerifyingKey): %T", vk)
	}
	if nPublic < 0 {
		return VKJSON{}, fmt.Errorf("invalid nPublic: %d", nPublic)
	}
	if len(v.G1.K) < nPublic+1 {
		return VKJSON{}, fmt.Errorf("vk IC too short: len(IC)=%d, need at least %d", len(v.G1.K), nPublic+1)
	}

	vkAlpha, err := g1CompressedHex(v.G1.Alpha)
	if err != nil {
		return VKJSON{}, err
	}
	vkBeta, err := g2CompressedHex(v.G2.Beta)
	if err != nil {
		return VKJSON{}, err
	}
	vkGamma, err := g2CompressedHex(v.G2.Gamma)
	if err != nil {
		return VKJSON{}, err
	}
	vkDelta, err := g2CompressedHex(v.G2.Delta)
	if err != nil {
		return VKJSON{}, err
	}

	ic := make([]string, 0, len(v.G1.K))
	for i := 0; i < len(v.G1.K); i++ {
		h, err := g1CompressedHex(v.G1.K[i])
		if err != nil {
			return VKJSON{}, err
		}
		ic = append(ic, h)
	}

	return VKJSON{
		NPublic: nPublic,
		VkAlpha: vkAlpha,
		VkBeta:  vkBeta,
		VkGamma: vkGamma,
		VkDelta: vkDelta,
		VkIC:    ic,
	}, nil
}

// ---------- public inputs extraction ----------

// exportPublicInputs returns the public witness vector as decimal strings,
// preserving gnark's exact ordering. On BN254 the vector is an fr.Vector.
func exportPublicInputs(publicWitness backend_witness.Witness) ([]string, error) {
	vecAny := publicWitness.Vector()
	if vecAny == nil {
		return nil, fmt.Errorf("publicWitness.Vector() returned nil")
	}

	var elems []fr.Element
	switch v := vecAny.(type) {
	case fr.Vector:
		elems = v
	case []fr.Element:
		elems = v
	default:
		return nil, fmt.Errorf("unexpected publicWitness.Vector() type %T (want bn254 fr.Vector)", vecAny)
	}

	out := make([]string, len(elems))
	for i := range elems {
		var bi big.Int
		elems[i].BigInt(&bi)
		out[i] = bi.String()
	}
	return out, nil
}

// choosePublicInputs reconciles the witness vector with the verifying key IC
// length so that len(IC) == len(pub)+1 holds in the export:
//
//  1. len(IC) == len(pubRaw)+2: the vector excludes the implicit one-wire,
//     prepend "1";
//  2. len(IC) == len(pubRaw)+1: already consistent;
//  3. len(IC) == len(pubRaw): the vector carries a leading 0/1 the IC does
//     not count, drop it.
func choosePublicInputs(pubRaw []string, icLen int) ([]string, error) {
	if icLen < 1 {
		return nil, fmt.Errorf("invalid vk IC length: %d", icLen)
	}

	switch {
	case icLen == len(pubRaw)+1:
		return append([]string(nil), pubRaw...), nil

	case icLen == len(pubRaw)+2:
		pub := make([]string, 0, len(pubRaw)+1)
		pub = append(pub, "1")
		pub = append(pub, pubRaw...)
		return pub, nil

	case icLen == len(pubRaw):
		if len(pubRaw) > 0 && (pubRaw[0] == "0" || pubRaw[0] == "1") {
			return append([]string(nil), pubRaw[1:]...), nil
		}
		return nil, fmt.Errorf(
			"public inputs length mismatch: len(pubRaw)=%d, len(vk.IC)=%d (cannot reconcile)",
			len(pubRaw), icLen,
		)

	default:
		return nil, fmt.Errorf(
			"public inputs length mismatch: len(pubRaw)=%d, len(vk.IC)=%d (expected IC to be pub+1 or pub+2)",
			len(pubRaw), icLen,
		)
	}
}

// ---------- JSON export ----------

func writeJSON(dir, name string, val interface{}) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(val)
}

// ExportAll writes vk.json, proof.json and public.json to dir. The public
// inputs are the 81 challenge cells; the puzzle hash rides along as an
// additional commitment for on-chain consumers.
func ExportAll(vk groth16.VerifyingKey, proof groth16.Proof, publicWitness backend_witness.Witness, puzzle Grid, dir string) error {
	pj, err := exportProofBN254(proof)
	if err != nil {
		return err
	}

	pubRaw, err := exportPublicInputs(publicWitness)
	if err != nil {
		return err
	}

	v, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return fmt.Errorf("unexpected vk type (need *groth16/bn254.VerifyingKey): %T", vk)
	}
	if len(v.G1.K) < 1 {
		return fmt.Errorf("invalid vk: IC empty")
	}

	pub, err := choosePublicInputs(pubRaw, len(v.G1.K))
	if err != nil {
		return err
	}

	vkj, err := exportVKBN254(vk, len(pub))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(dir, "vk.json", vkj); err != nil {
		return err
	}
	if err := writeJSON(dir, "proof.json", pj); err != nil {
		return err
	}
	return writeJSON(dir, "public.json", PublicJSON{Inputs: pub, PuzzleHash: puzzleHashHex(puzzle)})
}

// gridFromPublicInputs rebuilds the challenge grid from the 81 exported
// public input values.
func gridFromPublicInputs(inputs []string) (Grid, error) {
	var g Grid
	if len(inputs) != GridSize*GridSize {
		return g, fmt.Errorf("expected %d public inputs, got %d", GridSize*GridSize, len(inputs))
	}
	for i, in := range inputs {
		v, ok := new(big.Int).SetString(in, 10)
		if !ok || !v.IsUint64() || v.Uint64() > GridSize {
			return g, fmt.Errorf("public input %d is not a cell value: %q", i, in)
		}
		g[i/GridSize][i%GridSize] = uint8(v.Uint64())
	}
	return g, nil
}

// ReExportJSON regenerates vk.json / proof.json / public.json in dir from
// the native vk.bin / proof.bin / witness.bin, recovering the challenge
// grid from the public witness. Useful when the JSON artifacts were lost or
// tampered with.
func ReExportJSON(dir string) error {
	vkFile, err := os.Open(filepath.Join(dir, "vk.bin"))
	if err != nil {
		return fmt.Errorf("open vk.bin: %w", err)
	}
	defer vkFile.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return fmt.Errorf("read vk.bin: %w", err)
	}

	proofFile, err := os.Open(filepath.Join(dir, "proof.bin"))
	if err != nil {
		return fmt.Errorf("open proof.bin: %w", err)
	}
	defer proofFile.Close()

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(proofFile); err != nil {
		return fmt.Errorf("read proof.bin: %w", err)
	}

	witnessFile, err := os.Open(filepath.Join(dir, "witness.bin"))
	if err != nil {
		return fmt.Errorf("open witness.bin: %w", err)
	}
	defer witnessFile.Close()

	publicWitness, err := backend_witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("new witness: %w", err)
	}
	if _, err := publicWitness.ReadFrom(witnessFile); err != nil {
		return fmt.Errorf("read witness.bin: %w", err)
	}

	pubRaw, err := exportPublicInputs(publicWitness)
	if err != nil {
		return err
	}
	puzzle, err := gridFromPublicInputs(pubRaw)
	if err != nil {
		return err
	}

	return ExportAll(vk, proof, publicWitness, puzzle, dir)
}

// ExportVKOnly exports the verifying key to vk.json without needing a proof
// or witness. Useful right after setup.
func ExportVKOnly(vk groth16.VerifyingKey, dir string) error {
	v, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return fmt.Errorf("unexpected vk type (need *groth16/bn254.VerifyingKey): %T", vk)
	}

	nPublic := len(v.G1.K) - 1
	if nPublic < 1 {
		return fmt.Errorf("invalid vk: nPublic=%d (IC=%d)", nPublic, len(v.G1.K))
	}

	vkj, err := exportVKBN254(vk, nPublic)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return writeJSON(dir, "vk.json", vkj)
}

// ---------- native binary save/load ----------

// SaveNativeFiles writes gnark's native binary serialization of VK, Proof,
// and the public witness, so verification never needs to recompile the
// circuit.
func SaveNativeFiles(vk groth16.VerifyingKey, proof groth16.Proof, publicWitness backend_witness.Witness, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	vkFile, err := os.Create(filepath.Join(dir, "vk.bin"))
	if err != nil {
		return fmt.Errorf("create vk.bin: %w", err)
	}
	defer vkFile.Close()
	if _, err := vk.WriteTo(vkFile); err != nil {
		return fmt.Errorf("write vk.bin: %w", err)
	}

	proofFile, err := os.Create(filepath.Join(dir, "proof.bin"))
	if err != nil {
		return fmt.Errorf("create proof.bin: %w", err)
	}
	defer proofFile.Close()
	if _, err := proof.WriteTo(proofFile); err != nil {
		return fmt.Errorf("write proof.bin: %w", err)
	}

	witnessFile, err := os.Create(filepath.Join(dir, "witness.bin"))
	if err != nil {
		return fmt.Errorf("create witness.bin: %w", err)
	}
	defer witnessFile.Close()
	if _, err := publicWitness.WriteTo(witnessFile); err != nil {
		return fmt.Errorf("write witness.bin: %w", err)
	}

	return nil
}

// VerifyFromFiles loads vk.bin, proof.bin and witness.bin from dir and runs
// the Groth16 verifier.
func VerifyFromFiles(dir string) error {
	vkFile, err := os.Open(filepath.Join(dir, "vk.bin"))
	if err != nil {
		return fmt.Errorf("open vk.bin: %w", err)
	}
	defer vkFile.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return fmt.Errorf("read vk.bin: %w", err)
	}

	proofFile, err := os.Open(filepath.Join(dir, "proof.bin"))
	if err != nil {
		return fmt.Errorf("open proof.bin: %w", err)
	}
	defer proofFile.Close()

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(proofFile); err != nil {
		return fmt.Errorf("read proof.bin: %w", err)
	}

	witnessFile, err := os.Open(filepath.Join(dir, "witness.bin"))
	if err != nil {
		return fmt.Errorf("open witness.bin: %w", err)
	}
	defer witnessFile.Close()

	witness, err := backend_witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("new witness: %w", err)
	}
	if _, err := witness.ReadFrom(witnessFile); err != nil {
		return fmt.Errorf("read witness.bin: %w", err)
	}

	if err := groth16.Verify(proof, vk, witness); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	return nil
}

// ---------- setup file save/load ----------

// SaveSetupFiles writes the compiled constraint system, proving key, and
// verifying key. Generated once, reused for every proof.
func SaveSetupFiles(ccs constraint.ConstraintSystem, pk groth16.ProvingKey, vk groth16.VerifyingKey, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	ccsFile, err := os.Create(filepath.Join(dir, "ccs.bin"))
	if err != nil {
		return fmt.Errorf("create ccs.bin: %w", err)
	}
	defer ccsFile.Close()
	if _, err := ccs.WriteTo(ccsFile); err != nil {
		return fmt.Errorf("write ccs.bin: %w", err)
	}

	pkFile, err := os.Create(filepath.Join(dir, "pk.bin"))
	if err != nil {
		return fmt.Errorf("create pk.bin: %w", err)
	}
	defer pkFile.Close()
	if _, err := pk.WriteTo(pkFile); err != nil {
		return fmt.Errorf("write pk.bin: %w", err)
	}

	vkFile, err := os.Create(filepath.Join(dir, "vk.bin"))
	if err != nil {
		return fmt.Errorf("create vk.bin: %w", err)
	}
	defer vkFile.Close()
	if _, err := vk.WriteTo(vkFile); err != nil {
		return fmt.Errorf("write vk.bin: %w", err)
	}

	return nil
}

// LoadSetupFiles loads ccs.bin, pk.bin and vk.bin from dir.
func LoadSetupFiles(dir string) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey, error) {
	ccsFile, err := os.Open(filepath.Join(dir, "ccs.bin"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open ccs.bin: %w", err)
	}
	defer ccsFile.Close()

	ccs := groth16.NewCS(ecc.BN254)
	if _, err := ccs.ReadFrom(ccsFile); err != nil {
		return nil, nil, nil, fmt.Errorf("read ccs.bin: %w", err)
	}

	pkFile, err := os.Open(filepath.Join(dir, "pk.bin"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open pk.bin: %w", err)
	}
	defer pkFile.Close()

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(pkFile); err != nil {
		return nil, nil, nil, fmt.Errorf("read pk.bin: %w", err)
	}

	vkFile, err := os.Open(filepath.Join(dir, "vk.bin"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open vk.bin: %w", err)
	}
	defer vkFile.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return nil, nil, nil, fmt.Errorf("read vk.bin: %w", err)
	}

	return ccs, pk, vk, nil
}

// SetupFilesExist reports whether all setup files are present in dir.
func SetupFilesExist(dir string) bool {
	for _, name := range []string{"ccs.bin", "pk.bin", "vk.bin"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}
