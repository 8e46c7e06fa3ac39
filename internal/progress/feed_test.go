package progress_test

import (
	"strconv"
	"sync"
	"testing"

	"ytmp3d/internal/progress"
)

func TestFeedOrdering(t *testing.T) {
	feed := progress.NewFeed()

	const n = 10
	for i := range n {
		feed.Push(progress.EventProgress, i)
	}

	feed.Push(progress.EventDone, "terminal")
	feed.Finish()

	for i := range n {
		ev, ok := feed.TryPop()
		if !ok {
			t.Fatalf("expected event %d, feed empty", i)
		}

		if ev.Name != progress.EventProgress {
			t.Errorf("got event %q, want %q", ev.Name, progress.EventProgress)
		}

		if ev.Data != i {
			t.Errorf("got data %v, want %v", ev.Data, i)
		}
	}

	ev, ok := feed.TryPop()
	if !ok || ev.Name != progress.EventDone {
		t.Fatalf("expected terminal event last, got %v ok=%v", ev, ok)
	}

	if !feed.Drained() {
		t.Error("expected feed to be drained after terminal event consumed")
	}
}

func TestFeedDrainedSemantics(t *testing.T) {
	feed := progress.NewFeed()

	if feed.Drained() {
		t.Error("unfinished empty feed must not report drained")
	}

	feed.Push(progress.EventError, nil)
	feed.Finish()

	if feed.Drained() {
		t.Error("finished feed with pending events must not report drained")
	}

	if _, ok := feed.TryPop(); !ok {
		t.Fatal("expected pending event")
	}

	if !feed.Drained() {
		t.Error("finished and empty feed must report drained")
	}
}

func TestFeedProducerConsumer(t *testing.T) {
	feed := progress.NewFeed()

	const n = 100

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := range n {
			feed.Push(progress.EventProgress, strconv.Itoa(i))
		}

		feed.Push(progress.EventDone, "done")
		feed.Finish()
	}()

	var got []progress.Event

	for !feed.Drained() {
		if ev, ok := feed.TryPop(); ok {
			got = append(got, ev)
		}
	}

	wg.Wait()

	if len(got) != n+1 {
		t.Fatalf("got %d events, want %d", len(got), n+1)
	}

	if got[len(got)-1].Name != progress.EventDone {
		t.Errorf("last event is %q, want %q", got[len(got)-1].Name, progress.EventDone)
	}
}
