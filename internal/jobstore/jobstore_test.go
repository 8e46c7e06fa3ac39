package jobstore_test

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"ytmp3d/internal/entity"
	"ytmp3d/internal/jobstore"
	"ytmp3d/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
)

func newStore(t *testing.T) *jobstore.Store {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	metrics := observability.New(prometheus.NewRegistry())

	return jobstore.New(log, metrics)
}

func TestPutTake(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	job := entity.Job{Token: "tok-1", Path: "/tmp/x/file.mp3", Filename: "file.mp3"}
	store.Put(ctx, job)

	if store.Len() != 1 {
		t.Fatalf("got %d jobs, want 1", store.Len())
	}

	got, ok := store.TakeIfPresent("tok-1")
	if !ok {
		t.Fatal("expected job to be present")
	}

	if got != job {
		t.Errorf("got %+v, want %+v", got, job)
	}

	if _, ok := store.TakeIfPresent("tok-1"); ok {
		t.Error("second take must report absent")
	}

	if store.Len() != 0 {
		t.Errorf("got %d jobs, want 0", store.Len())
	}
}

func TestPutEmptyToken(t *testing.T) {
	store := newStore(t)

	store.Put(t.Context(), entity.Job{Path: "/tmp/x/file.mp3"})

	if store.Len() != 0 {
		t.Errorf("job with empty token must not be stored, got %d", store.Len())
	}
}

func TestTakeUnknownToken(t *testing.T) {
	store := newStore(t)

	if _, ok := store.TakeIfPresent("nope"); ok {
		t.Error("unknown token must report absent")
	}
}

// TestConcurrentTake pits many takers against a single token; exactly one may
// win, no matter how the downloads and the reclaimer race.
func TestConcurrentTake(t *testing.T) {
	store := newStore(t)
	store.Put(t.Context(), entity.Job{Token: "tok-race"})

	const takers = 32

	var (
		wins int64
		wg   sync.WaitGroup
	)

	wg.Add(takers)

	for range takers {
		go func() {
			defer wg.Done()

			if _, ok := store.TakeIfPresent("tok-race"); ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}

	wg.Wait()

	if wins != 1 {
		t.Errorf("got %d winners, want exactly 1", wins)
	}
}
