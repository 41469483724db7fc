package job

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyExists is returned by Create while a non-terminal job holds
	// the key.
	ErrAlreadyExists = errors.New("job already in progress")

	// ErrNotFound is returned when no record exists for a key.
	ErrNotFound = errors.New("job not found")

	// ErrTerminal is returned when an update targets a completed or failed
	// record. Only the runner writes completions, so hitting this means a
	// lifecycle discipline violation.
	ErrTerminal = errors.New("job already in terminal state")
)

// Mirror persists record transitions to external storage. Implementations
// must tolerate being called once per transition; failures are logged and
// never block the in-memory lifecycle.
type Mirror interface {
	SaveJob(ctx context.Context, rec Record) error
}

// Store is the process-wide registry of jobs, keyed by normalized athlete
// name. Reads return snapshot copies, so callers never observe a record
// mid-update.
type Store struct {
	mu     sync.RWMutex
	jobs   map[Key]*Record
	mirror Mirror
	now    func() time.Time
}

// NewStore creates an empty store. mirror may be nil to keep jobs in memory
// only.
func NewStore(mirror Mirror) *Store {
	return &Store{
		jobs:   make(map[Key]*Record),
		mirror: mirror,
		now:    time.Now,
	}
}

// Create registers a new processing job for the key. It fails with
// ErrAlreadyExists while a non-terminal record holds the key; a terminal
// record is replaced, which is how a client retries after completion or
// failure.
func (s *Store) Create(ctx context.Context, key Key, athleteName, goals string) (Record, error) {
	s.mu.Lock()
	if existing, ok := s.jobs[key]; ok && !existing.Status.Terminal() {
		s.mu.Unlock()
		return Record{}, ErrAlreadyExists
	}

	now := s.now()
	rec := &Record{
		ID:          uuid.New().String()[:8],
		Key:         key,
		AthleteName: athleteName,
		Goals:       goals,
		Status:      StatusProcessing,
		Message:     "training plan is still being generated",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.jobs[key] = rec
	snapshot := *rec
	s.mu.Unlock()

	slog.Info("job created", "job_id", snapshot.ID, "key", key, "athlete", athleteName)
	s.save(ctx, snapshot)
	return snapshot, nil
}

// Get returns a copy of the record for the key.
func (s *Store) Get(key Key) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Complete marks the job completed with the generated summary and artifact.
func (s *Store) Complete(ctx context.Context, key Key, summary, artifactPath string) error {
	rec, err := s.transition(key, StatusCompleted, summary, artifactPath)
	if err != nil {
		return err
	}
	slog.Info("job completed", "job_id", rec.ID, "key", key, "artifact", artifactPath)
	s.save(ctx, rec)
	return nil
}

// Fail marks the job failed with an explanation.
func (s *Store) Fail(ctx context.Context, key Key, reason string) error {
	rec, err := s.transition(key, StatusFailed, reason, "")
	if err != nil {
		return err
	}
	slog.Error("job failed", "job_id", rec.ID, "key", key, "reason", reason)
	s.save(ctx, rec)
	return nil
}

// List returns snapshots of all jobs, most recently created first.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]Record, 0, len(s.jobs))
	for _, rec := range s.jobs {
		recs = append(recs, *rec)
	}
	slices.SortFunc(recs, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return recs
}

func (s *Store) transition(key Key, status Status, message, artifactPath string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	if rec.Status.Terminal() {
		slog.Error("update rejected for terminal job",
			"job_id", rec.ID, "key", key, "status", rec.Status, "attempted", status)
		return Record{}, ErrTerminal
	}

	// A terminal record always carries a message, even when the runner
	// passes none.
	if message == "" {
		if status == StatusCompleted {
			message = "training plan generated successfully"
		} else {
			message = "training plan generation failed"
		}
	}

	rec.Status = status
	rec.Message = message
	rec.ArtifactPath = artifactPath
	rec.UpdatedAt = s.now()
	return *rec, nil
}

func (s *Store) save(ctx context.Context, rec Record) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.SaveJob(ctx, rec); err != nil {
		slog.Warn("failed to persist job record", "job_id", rec.ID, "key", rec.Key, "error", err)
	}
}
