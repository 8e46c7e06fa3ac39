// Package reclaimer deletes job output directories once their retention
// window elapses, unless the download endpoint consumed the job first.
package reclaimer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ytmp3d/internal/jobstore"
	"ytmp3d/internal/observability"
)

// Reclaimer arms one-shot timers per job. Firing is idempotent: if the token
// was already taken, the timer is a no-op. Deletion failures are logged and
// swallowed; reclamation is best-effort by design of the store hand-off.
type Reclaimer struct {
	log     *slog.Logger
	store   *jobstore.Store
	metrics *observability.Metrics

	ctx context.Context
	wg  sync.WaitGroup
}

// New creates a reclaimer whose pending timers are released when ctx is
// canceled. Call Wait during teardown to join the timer goroutines.
func New(ctx context.Context, log *slog.Logger, store *jobstore.Store, metrics *observability.Metrics) *Reclaimer {
	return &Reclaimer{
		log:     log.With(slog.String("package", "reclaimer")),
		store:   store,
		metrics: metrics,
		ctx:     ctx,
	}
}

// Schedule arms a one-shot timer that, after delay, takes the job for token
// from the store and deletes its directory. There is no cancel operation;
// consumption by the download endpoint makes the firing harmless.
func (r *Reclaimer) Schedule(token string, delay time.Duration) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-r.ctx.Done():
			// Process teardown; temp dirs under the downloads root are
			// ephemeral and may be swept on next start.
			return
		}

		r.reclaim(token)
	}()
}

// Wait blocks until all armed timers have fired or been released.
func (r *Reclaimer) Wait() {
	r.wg.Wait()
}

func (r *Reclaimer) reclaim(token string) {
	log := r.log.With(slog.String("token", token))

	job, ok := r.store.TakeIfPresent(token)
	if !ok {
		log.Debug("reclaim: job already consumed")

		return
	}

	dir := filepath.Dir(job.Path)

	if err := os.RemoveAll(dir); err != nil {
		log.Error("reclaim: remove job directory", slog.String("dir", dir), slog.Any("error", err))

		return
	}

	r.metrics.RecordReclaim()

	log.Info("job directory reclaimed", slog.String("dir", dir))
}
