// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// config.go

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the HTTP service needs at startup. It is built
// once and injected; nothing in the validator or prover reads ambient
// process state.
type Config struct {
	Port     int    // TCP port for the HTTP server
	SetupDir string // directory holding ccs.bin / pk.bin / vk.bin
	ProofDir string // directory proof job artifacts are written under
	UseZKP   bool   // enqueue proof generation for valid solutions
	Workers  int    // concurrent proving workers
	QueueLen int    // pending proof job capacity
}

func defaultConfig() Config {
	return Config{
		Port:     3000,
		SetupDir: "setup",
		ProofDir: "proofs",
		UseZKP:   true,
		Workers:  1,
		QueueLen: 16,
	}
}

// loadEnvConfig layers SUDOKU_* environment variables (optionally from a
// .env file) over the defaults. Flags override the result.
func loadEnvConfig() (Config, error) {
	// missing .env is fine
	_ = godotenv.Load()

	cfg := defaultConfig()

	if v := os.Getenv("SUDOKU_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("SUDOKU_PORT: %w", err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("SUDOKU_SETUP_DIR"); v != "" {
		cfg.SetupDir = v
	}
	if v := os.Getenv("SUDOKU_PROOF_DIR"); v != "" {
		cfg.ProofDir = v
	}
	if v := os.Getenv("SUDOKU_USE_ZKP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("SUDOKU_USE_ZKP: %w", err)
		}
		cfg.UseZKP = b
	}
	if v := os.Getenv("SUDOKU_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("SUDOKU_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("invalid worker count %d", cfg.Workers)
	}
	return cfg, nil
}
