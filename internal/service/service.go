// Package service drives conversion jobs end-to-end: engine invocation,
// progress mapping, deliverable assembly, job registration and reclamation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ytmp3d/internal/config"
	"ytmp3d/internal/consts"
	"ytmp3d/internal/engine"
	"ytmp3d/internal/entity"
	"ytmp3d/internal/jobstore"
	"ytmp3d/internal/observability"
	"ytmp3d/internal/progress"
	"ytmp3d/internal/reclaimer"
	"ytmp3d/pkg/calc"

	"github.com/google/uuid"
)

// Converter is the orchestrator's client-facing surface.
type Converter interface {
	// Stream starts a background conversion job and returns its event feed.
	// The worker is detached from ctx: a consumer that disconnects does not
	// interrupt the conversion.
	Stream(ctx context.Context, url string) *progress.Feed

	// Convert runs a conversion synchronously and returns the deliverable.
	// The caller owns the deliverable's directory and must remove it.
	Convert(ctx context.Context, url string) (*entity.Deliverable, error)
}

type orchestrator struct {
	log       *slog.Logger
	cfg       *config.Config
	engine    engine.Engine
	store     *jobstore.Store
	reclaimer *reclaimer.Reclaimer
	metrics   *observability.Metrics
}

var _ Converter = (*orchestrator)(nil)

// New creates the conversion orchestrator.
func New(
	cfg *config.Config,
	log *slog.Logger,
	eng engine.Engine,
	store *jobstore.Store,
	rec *reclaimer.Reclaimer,
	metrics *observability.Metrics,
) Converter {
	return &orchestrator{
		log:       log.With(slog.String("package", "service")),
		cfg:       cfg,
		engine:    eng,
		store:     store,
		reclaimer: rec,
		metrics:   metrics,
	}
}

func (svc *orchestrator) Stream(ctx context.Context, url string) *progress.Feed {
	feed := progress.NewFeed()

	// The worker outlives the request: registration and reclamation must
	// happen even when the streaming client goes away.
	go svc.run(context.WithoutCancel(ctx), url, feed)

	return feed
}

// run is the per-job worker. Exactly one terminal event is pushed, even when
// the worker panics; the deferred block is the only place terminal events and
// feed completion are produced.
func (svc *orchestrator) run(ctx context.Context, url string, feed *progress.Feed) {
	log := svc.log.With(slog.String("url", url))

	svc.metrics.RecordJobCreated()

	stop := svc.metrics.JobTimer()
	defer stop()

	var (
		deliv *entity.Deliverable
		token string
		err   error
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conversion worker panic: %v", r)
		}

		if err != nil {
			log.ErrorContext(ctx, "conversion failed", slog.Any("error", err))
			feed.Push(progress.EventError, entity.ErrorPayload{Error: err.Error()})
			svc.metrics.RecordJobFailed()
		} else {
			feed.Push(progress.EventDone, entity.DonePayload{Token: token, Filename: deliv.Filename})
			svc.metrics.RecordJobCompleted()
		}

		feed.Finish()
	}()

	deliv, err = svc.convert(ctx, url, streamHook(feed))
	if err != nil {
		return
	}

	token = uuid.NewString()

	job := entity.Job{
		Token:     token,
		Path:      deliv.Path,
		Filename:  deliv.Filename,
		ExpiresAt: time.Now().Add(svc.cfg.Job.Retention),
	}

	svc.store.Put(ctx, job)
	svc.reclaimer.Schedule(token, svc.cfg.Job.Retention)

	log.InfoContext(ctx, "conversion finished", "job", job)
}

func (svc *orchestrator) Convert(ctx context.Context, url string) (*entity.Deliverable, error) {
	return svc.convert(ctx, url, nil)
}

// convert allocates the job-private temp directory, runs the engine into it
// and assembles the deliverable. On any failure the directory is removed
// before returning; on success the caller takes ownership.
func (svc *orchestrator) convert(ctx context.Context, url string, fn engine.ProgressFunc) (*entity.Deliverable, error) {
	if err := os.MkdirAll(svc.cfg.Dir.Downloads, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads root: %w", err)
	}

	dir, err := os.MkdirTemp(svc.cfg.Dir.Downloads, consts.TempDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	res, err := svc.engine.Fetch(ctx, url, dir, fn)
	if err != nil {
		svc.removeDir(ctx, dir)

		return nil, fmt.Errorf("engine fetch: %w", err)
	}

	deliv, err := svc.assemble(dir, res)
	if err != nil {
		svc.removeDir(ctx, dir)

		return nil, err
	}

	return deliv, nil
}

// removeDir is best-effort; cleanup failures never reach a caller.
func (svc *orchestrator) removeDir(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		svc.log.ErrorContext(ctx, "remove temp dir", slog.String("dir", dir), slog.Any("error", err))
	}
}

// streamHook maps engine callbacks into feed events: transferring bytes
// becomes a "progress" event with percent/speed/eta when the total is known,
// a finished transfer becomes a status note for the conversion phase.
func streamHook(feed *progress.Feed) engine.ProgressFunc {
	return func(p engine.Progress) {
		switch p.Status {
		case engine.StatusDownloading:
			payload := entity.ProgressPayload{
				Status:  "downloading",
				Percent: calc.Percent(p.DownloadedBytes, p.TotalBytes),
				Speed:   calc.Speed(p.DownloadedBytes, p.Started),
				ETA:     calc.ETASeconds(p.DownloadedBytes, p.TotalBytes, p.Started),
			}
			if p.Filename != "" {
				payload.Filename = filepath.Base(p.Filename)
			}

			feed.Push(progress.EventProgress, payload)
		case engine.StatusConverting:
			feed.Push(progress.EventProgress, entity.ProgressPayload{Status: "download finished, converting..."})
		}
	}
}
