// Package jobstore provides the in-memory registry of completed conversion
// jobs awaiting retrieval or reclamation.
package jobstore

import (
	"context"
	"log/slog"
	"sync"

	"ytmp3d/internal/entity"
	"ytmp3d/internal/observability"
)

// Store is a mutex-guarded map from opaque token to job. Entries are removed
// exactly once, by whichever of the download endpoint and the reclaimer acts
// first; a removed token is never reused.
type Store struct {
	log     *slog.Logger
	metrics *observability.Metrics

	mu   sync.Mutex
	jobs map[string]entity.Job
}

// New creates an empty store.
func New(log *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		log:     log.With(slog.String("package", "jobstore")),
		metrics: metrics,
		jobs:    make(map[string]entity.Job),
	}
}

// Put registers a job under its token. Tokens are generated fresh per job, so
// an existing entry under the same token indicates a programming error and is
// overwritten with a log line rather than rejected.
func (s *Store) Put(ctx context.Context, job entity.Job) {
	if job.Token == "" {
		s.log.ErrorContext(ctx, "put job: empty token", "job", job)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Token]; exists {
		s.log.WarnContext(ctx, "put job: token already present, overwriting", slog.String("token", job.Token))
	}

	s.jobs[job.Token] = job
	s.metrics.SetStoredJobs(len(s.jobs))
}

// TakeIfPresent atomically removes and returns the job for token. The second
// and every later call for the same token reports absent, which is what
// guarantees a deliverable is served and reclaimed at most once.
func (s *Store) TakeIfPresent(token string) (entity.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[token]
	if !ok {
		return entity.Job{}, false
	}

	delete(s.jobs, token)
	s.metrics.SetStoredJobs(len(s.jobs))

	return job, true
}

// Len returns the number of registered jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.jobs)
}
