// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// server.go

package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type validateRequest struct {
	Board    [][]int `json:"board" binding:"required"`
	Solution [][]int `json:"solution" binding:"required"`
}

type validateResponse struct {
	IsValid    bool   `json:"is_valid"`
	Reason     string `json:"reason,omitempty"`
	ProofJobID string `json:"proof_job_id,omitempty"`
}

type jobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	ProofDir string `json:"proof_dir,omitempty"`
}

type server struct {
	cfg  Config
	jobs *jobStore
	log  zerolog.Logger
}

func newServer(cfg Config, jobs *jobStore, log zerolog.Logger) *server {
	return &server{cfg: cfg, jobs: jobs, log: log}
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/", s.handleRoot)
	r.POST("/validate-sudoku", s.handleValidate)
	r.GET("/proof-jobs/:id", s.handleJob)
	return r
}

func (s *server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "zksudoku",
		"zkp":     s.cfg.UseZKP,
	})
}

// handleValidate checks a (puzzle, solution) pair. Structural problems are
// the client's fault and come back as 400; a well-formed but wrong solution
// is a 200 with is_valid=false. Valid pairs optionally enqueue a proof job.
func (s *server) handleValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	puzzle, err := GridFromRows(req.Board, PuzzleGrid)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("board: %v", err)})
		return
	}
	solution, err := GridFromRows(req.Solution, SolutionGrid)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("solution: %v", err)})
		return
	}

	if err := Validate(puzzle, solution); err != nil {
		if errors.Is(err, ErrInvalidSolution) {
			c.JSON(http.StatusOK, validateResponse{IsValid: false, Reason: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := validateResponse{IsValid: true}
	if s.cfg.UseZKP && s.jobs != nil {
		id, err := s.jobs.submit(puzzle, solution)
		if err != nil {
			s.log.Warn().Err(err).Msg("could not enqueue proof job")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		resp.ProofJobID = id
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleJob(c *gin.Context) {
	if s.jobs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "proof generation disabled"})
		return
	}
	id := c.Param("id")
	job, ok := s.jobs.get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job id"})
		return
	}
	status, errMsg, proofDir := job.snapshot()
	c.JSON(http.StatusOK, jobResponse{
		ID:       id,
		Status:   status,
		Error:    errMsg,
		ProofDir: proofDir,
	})
}

// runServe wires config, proving setup, the job store, and the gin router
// together and blocks serving HTTP.
func runServe(cfg Config) error {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "serve").Logger()

	var jobs *jobStore
	if cfg.UseZKP {
		if _, _, _, err := ensureSetup(cfg.SetupDir); err != nil {
			return fmt.Errorf("proving setup: %w", err)
		}
		prove := func(puzzle, solution Grid, outDir string) error {
			return ProveSolution(puzzle, solution, cfg.SetupDir, outDir)
		}
		jobs = newJobStore(cfg.ProofDir, cfg.QueueLen, prove, log)
		jobs.start(cfg.Workers)
		defer jobs.stop()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := newServer(cfg, jobs, log)
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Bool("zkp", cfg.UseZKP).Msg("listening")
	return srv.routes().Run(addr)
}
