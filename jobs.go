// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// jobs.go
//
// Asynchronous proof generation. Proving a solution takes seconds even on a
// warm setup, so the HTTP handler never proves inline: valid submissions are
// queued here and proved by a small worker pool, and clients poll the job id.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	jobStatusWaiting   = "waiting"
	jobStatusRunning   = "running"
	jobStatusCompleted = "completed"
	jobStatusErrored   = "errored"
)

// jobTTL is how long a finished job stays queryable.
const jobTTL = 3 * time.Hour

type proveJob struct {
	mu sync.RWMutex

	id       string
	puzzle   Grid
	solution Grid

	status   string
	err      string
	proofDir string
	created  time.Time
	finished time.Time
}

func (j *proveJob) snapshot() (status, errMsg, proofDir string) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status, j.err, j.proofDir
}

func (j *proveJob) setRunning() {
	j.mu.Lock()
	j.status = jobStatusRunning
	j.mu.Unlock()
}

func (j *proveJob) setCompleted(dir string) {
	j.mu.Lock()
	j.status = jobStatusCompleted
	j.proofDir = dir
	j.finished = time.Now()
	j.mu.Unlock()
}

func (j *proveJob) setErrored(err error) {
	j.mu.Lock()
	j.status = jobStatusErrored
	j.err = err.Error()
	j.finished = time.Now()
	j.mu.Unlock()
}

// proverFunc produces proof artifacts for a validated pair under outDir.
// Swappable so server tests do not run Groth16.
type proverFunc func(puzzle, solution Grid, outDir string) error

type jobStore struct {
	jobs    sync.Map // job id -> *proveJob
	queue   chan *proveJob
	prove   proverFunc
	baseDir string
	log     zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func newJobStore(baseDir string, queueLen int, prove proverFunc, log zerolog.Logger) *jobStore {
	return &jobStore{
		queue:   make(chan *proveJob, queueLen),
		prove:   prove,
		baseDir: baseDir,
		log:     log,
	}
}

// start launches the worker pool and the TTL sweeper. Call stop to drain.
func (s *jobStore) start(workers int) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	s.wg.Add(1)
	go s.sweeper(ctx)
}

func (s *jobStore) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// submit enqueues a proof job for an already-validated pair. Returns an
// error when the queue is full; the caller reports that as backpressure,
// not as an invalid solution.
func (s *jobStore) submit(puzzle, solution Grid) (string, error) {
	job := &proveJob{
		id:       uuid.New().String(),
		puzzle:   puzzle,
		solution: solution,
		status:   jobStatusWaiting,
		created:  time.Now(),
	}
	select {
	case s.queue <- job:
		s.jobs.Store(job.id, job)
		return job.id, nil
	default:
		return "", fmt.Errorf("proof queue full")
	}
}

func (s *jobStore) get(id string) (*proveJob, bool) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*proveJob), true
}

func (s *jobStore) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.runJob(job)
		}
	}
}

func (s *jobStore) runJob(job *proveJob) {
	job.setRunning()
	dir := filepath.Join(s.baseDir, job.id)
	start := time.Now()
	if err := s.prove(job.puzzle, job.solution, dir); err != nil {
		s.log.Error().Str("job", job.id).Err(err).Msg("proof job failed")
		job.setErrored(err)
		return
	}
	s.log.Info().Str("job", job.id).Dur("took", time.Since(start)).Msg("proof job completed")
	job.setCompleted(dir)
}

func (s *jobStore) sweeper(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepExpired(now)
		}
	}
}

// sweepExpired drops finished jobs older than jobTTL. Split out from the
// ticker loop so it can be driven with a fixed clock in tests.
func (s *jobStore) sweepExpired(now time.Time) int {
	removed := 0
	s.jobs.Range(func(key, value any) bool {
		job := value.(*proveJob)
		job.mu.RLock()
		done := job.status == jobStatusCompleted || job.status == jobStatusErrored
		expired := done && now.Sub(job.finished) > jobTTL
		job.mu.RUnlock()
		if expired {
			s.jobs.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
