// Package service provides the training-plan job lifecycle: accepting
// submissions, running generation in the background, and answering status
// and download queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/planforge/planforge/internal/generate"
	"github.com/planforge/planforge/internal/job"
)

var (
	// ErrEmptyAthleteName rejects submissions whose name normalizes to
	// nothing.
	ErrEmptyAthleteName = errors.New("athlete name must not be empty")

	// ErrAlreadyInProgress rejects a submission while a job for the same
	// key is still processing.
	ErrAlreadyInProgress = errors.New("training plan generation already in progress")

	// ErrNotFound means no job was ever submitted for the key.
	ErrNotFound = errors.New("no training plan found")

	// ErrNotReady means the job exists but has not completed.
	ErrNotReady = errors.New("training plan is not ready yet")

	// ErrArtifactMissing means the job completed but its spreadsheet is no
	// longer on disk.
	ErrArtifactMissing = errors.New("training plan file not found")
)

// PlanService owns the job store and the background runners. All external
// surfaces (HTTP handlers, tests) go through it rather than the store.
type PlanService struct {
	store     *job.Store
	generator generate.Generator
	logger    *slog.Logger

	running sync.WaitGroup
}

// NewPlanService creates the service. The generator is invoked once per
// accepted submission, on its own goroutine.
func NewPlanService(store *job.Store, generator generate.Generator, logger *slog.Logger) *PlanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanService{
		store:     store,
		generator: generator,
		logger:    logger,
	}
}

// Submit validates the request, registers the job and dispatches generation
// in the background. It returns as soon as the record exists; it never waits
// for the generator.
func (s *PlanService) Submit(ctx context.Context, athleteName, goals string) (job.Record, error) {
	key := job.KeyFor(athleteName)
	if key == "" {
		return job.Record{}, ErrEmptyAthleteName
	}

	rec, err := s.store.Create(ctx, key, athleteName, goals)
	if errors.Is(err, job.ErrAlreadyExists) {
		return job.Record{}, ErrAlreadyInProgress
	}
	if err != nil {
		return job.Record{}, err
	}

	s.running.Add(1)
	go s.run(key, generate.Request{AthleteName: athleteName, Goals: goals})
	return rec, nil
}

// run executes the generator and stores exactly one terminal transition.
// Every failure path, panics included, ends in a failed record — a job must
// never stay processing after its runner exits.
func (s *PlanService) run(key job.Key, req generate.Request) {
	defer s.running.Done()

	// The runner outlives the submission request, so it cannot use the
	// request context.
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("generator panicked", "key", key, "panic", r)
			s.fail(ctx, key, fmt.Sprintf("internal error: %v", r))
		}
	}()

	res, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.fail(ctx, key, err.Error())
		return
	}

	if err := s.store.Complete(ctx, key, res.Summary, res.ArtifactPath); err != nil {
		s.logger.Error("failed to store completion", "key", key, "error", err)
	}
}

func (s *PlanService) fail(ctx context.Context, key job.Key, reason string) {
	if err := s.store.Fail(ctx, key, reason); err != nil {
		s.logger.Error("failed to store failure", "key", key, "error", err)
	}
}

// StatusInfo is the externally visible view of a job.
type StatusInfo struct {
	Status            job.Status
	Message           string
	ArtifactAvailable bool
}

// Status reports the current state for an athlete. Unknown athletes get
// StatusNotFound; this is a pure read and safe under arbitrary polling.
func (s *PlanService) Status(athleteName string) StatusInfo {
	rec, ok := s.store.Get(job.KeyFor(athleteName))
	if !ok {
		return StatusInfo{
			Status:  job.StatusNotFound,
			Message: fmt.Sprintf("no training plan found for athlete: %s", athleteName),
		}
	}
	return StatusInfo{
		Status:            rec.Status,
		Message:           rec.Message,
		ArtifactAvailable: rec.Status == job.StatusCompleted,
	}
}

// Artifact resolves the spreadsheet path for a completed job. It re-checks
// the file at resolution time since the record outlives anything that might
// happen to the disk.
func (s *PlanService) Artifact(athleteName string) (string, error) {
	rec, ok := s.store.Get(job.KeyFor(athleteName))
	if !ok {
		return "", ErrNotFound
	}
	if rec.Status != job.StatusCompleted {
		return "", ErrNotReady
	}
	if rec.ArtifactPath == "" {
		return "", ErrArtifactMissing
	}
	if _, err := os.Stat(rec.ArtifactPath); err != nil {
		return "", ErrArtifactMissing
	}
	return rec.ArtifactPath, nil
}

// Jobs lists all known jobs, most recent first.
func (s *PlanService) Jobs() []job.Record {
	return s.store.List()
}

// Wait blocks until every dispatched runner has stored its terminal state.
// Used on shutdown so in-flight generations are not abandoned silently.
func (s *PlanService) Wait() {
	s.running.Wait()
}
