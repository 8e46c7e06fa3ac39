package reclaimer_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"ytmp3d/internal/entity"
	"ytmp3d/internal/jobstore"
	"ytmp3d/internal/observability"
	"ytmp3d/internal/reclaimer"

	"github.com/prometheus/client_golang/prometheus"
)

func jobDir(t *testing.T) (dir, path string) {
	t.Helper()

	dir = t.TempDir()
	path = filepath.Join(dir, "song.mp3")

	if err := os.WriteFile(path, []byte("audio"), 0o600); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}

	return dir, path
}

func TestScheduleReclaims(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	retention := 10 * time.Minute

	synctest.Test(t, func(t *testing.T) {
		dir, path := jobDir(t)

		metrics := observability.New(prometheus.NewRegistry())
		store := jobstore.New(log, metrics)
		rec := reclaimer.New(t.Context(), log, store, metrics)

		store.Put(t.Context(), entity.Job{Token: "tok-1", Path: path, Filename: "song.mp3"})
		rec.Schedule("tok-1", retention)

		time.Sleep(retention + time.Second)
		rec.Wait()

		if _, ok := store.TakeIfPresent("tok-1"); ok {
			t.Error("expected job to be gone from store after reclamation")
		}

		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("expected job directory to be removed, stat err: %v", err)
		}
	})
}

func TestScheduleNotBeforeRetention(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	retention := 10 * time.Minute

	synctest.Test(t, func(t *testing.T) {
		dir, path := jobDir(t)

		metrics := observability.New(prometheus.NewRegistry())
		store := jobstore.New(log, metrics)
		rec := reclaimer.New(t.Context(), log, store, metrics)

		store.Put(t.Context(), entity.Job{Token: "tok-1", Path: path})
		rec.Schedule("tok-1", retention)

		time.Sleep(retention - time.Second)
		synctest.Wait()

		if store.Len() != 1 {
			t.Error("job must survive until retention elapses")
		}

		if _, err := os.Stat(dir); err != nil {
			t.Errorf("job directory must survive until retention elapses: %v", err)
		}
	})
}

// A job consumed by a download before its timer fires must make the firing a
// no-op: no deletion, no error.
func TestScheduleAfterConsumption(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	retention := 10 * time.Minute

	synctest.Test(t, func(t *testing.T) {
		dir, path := jobDir(t)

		metrics := observability.New(prometheus.NewRegistry())
		store := jobstore.New(log, metrics)
		rec := reclaimer.New(t.Context(), log, store, metrics)

		store.Put(t.Context(), entity.Job{Token: "tok-1", Path: path})
		rec.Schedule("tok-1", retention)

		// Download claims the job; the endpoint owns the files now.
		if _, ok := store.TakeIfPresent("tok-1"); !ok {
			t.Fatal("expected to take job")
		}

		time.Sleep(retention + time.Second)
		rec.Wait()

		if _, err := os.Stat(dir); err != nil {
			t.Errorf("reclaimer must not touch a consumed job's files: %v", err)
		}
	})
}

func TestContextCancelReleasesTimers(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	synctest.Test(t, func(t *testing.T) {
		dir, path := jobDir(t)

		metrics := observability.New(prometheus.NewRegistry())
		store := jobstore.New(log, metrics)

		ctx, cancel := context.WithCancel(t.Context())

		rec := reclaimer.New(ctx, log, store, metrics)

		store.Put(ctx, entity.Job{Token: "tok-1", Path: path})
		rec.Schedule("tok-1", time.Hour)

		cancel()
		rec.Wait()

		if _, err := os.Stat(dir); err != nil {
			t.Errorf("canceled reclaimer must leave files alone: %v", err)
		}
	})
}
