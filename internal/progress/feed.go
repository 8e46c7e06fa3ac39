// Package progress implements the per-job event feed bridging a conversion
// worker to a live-streaming consumer.
package progress

import "sync"

// Stream event names as they appear on the wire.
const (
	EventProgress = "progress"
	EventDone     = "done"
	EventError    = "error"
)

// Event is a single named event with a JSON-marshalable payload.
type Event struct {
	Name string
	Data any
}

// Feed is an ordered, unbounded single-producer/single-consumer event queue.
// The producer pushes any number of events followed by exactly one terminal
// event, then calls Finish. The consumer polls TryPop and stops only once the
// feed is finished and fully drained, so no event is ever dropped even when
// completion races ahead of delivery. A consumer that walks away simply stops
// polling; the producer is never blocked or interrupted.
type Feed struct {
	mu     sync.Mutex
	events []Event
	done   bool
}

// NewFeed returns an empty, unfinished feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Push appends one event.
func (f *Feed) Push(name string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, Event{Name: name, Data: data})
}

// Finish marks the producer side complete. It must be called after the
// terminal event has been pushed.
func (f *Feed) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.done = true
}

// TryPop removes and returns the oldest pending event, if any.
func (f *Feed) TryPop() (Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.events) == 0 {
		return Event{}, false
	}

	ev := f.events[0]
	f.events = f.events[1:]

	return ev, true
}

// Drained reports whether the producer has finished and every event has been
// consumed. The consumer's polling loop terminates on this condition only.
func (f *Feed) Drained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.done && len(f.events) == 0
}
