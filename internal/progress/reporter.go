package progress

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
)

const (
	DefaultBufferSize  = 256
	DefaultCloseGrace  = 2 * time.Second
	reporterPackageTag = "progress"
)

/*
Reporter Responsibilities
- Hand finalized page events to the caller's sink off the worker path
- Never block a worker: a full buffer drops the event and counts it
- Contain sink panics so they cannot take down the run
- Bound shutdown: Close waits for delivery at most a grace period

A Reporter built with a nil sink accepts and discards everything.
*/
type Reporter struct {
	sink         Sink
	metadataSink metadata.MetadataSink
	grace        time.Duration

	mu     sync.RWMutex
	closed bool
	events chan Event
	done   chan struct{}

	dropped  atomic.Int64
	panicked atomic.Int64
}

type ReporterOption func(*Reporter)

func WithBufferSize(size int) ReporterOption {
	return func(r *Reporter) {
		if size > 0 {
			r.events = make(chan Event, size)
		}
	}
}

func WithCloseGrace(grace time.Duration) ReporterOption {
	return func(r *Reporter) {
		if grace >= 0 {
			r.grace = grace
		}
	}
}

func WithMetadataSink(sink metadata.MetadataSink) ReporterOption {
	return func(r *Reporter) {
		if sink != nil {
			r.metadataSink = sink
		}
	}
}

func NewReporter(sink Sink, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		sink:         sink,
		metadataSink: &metadata.NoopSink{},
		grace:        DefaultCloseGrace,
		events:       make(chan Event, DefaultBufferSize),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.sink == nil {
		close(r.done)
		return r
	}
	go r.deliver()
	return r
}

// Report enqueues an event without blocking.
func (r *Reporter) Report(event Event) {
	if r.sink == nil {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.events <- event:
	default:
		r.dropped.Add(1)
	}
}

// Close stops intake and waits for pending events to be delivered, at most
// the grace period. It reports whether delivery finished in time. Safe to
// call more than once.
func (r *Reporter) Close() bool {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		if r.sink != nil {
			close(r.events)
		}
	}
	r.mu.Unlock()

	timer := time.NewTimer(r.grace)
	defer timer.Stop()

	select {
	case <-r.done:
		return true
	case <-timer.C:
		return false
	}
}

// Dropped is the number of events discarded because the buffer was full or
// the reporter was closed.
func (r *Reporter) Dropped() int {
	return int(r.dropped.Load())
}

// Panicked is the number of sink calls that panicked.
func (r *Reporter) Panicked() int {
	return int(r.panicked.Load())
}

func (r *Reporter) deliver() {
	defer close(r.done)
	for event := range r.events {
		r.deliverOne(event)
	}
}

func (r *Reporter) deliverOne(event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panicked.Add(1)
			r.metadataSink.RecordError(
				time.Now(),
				reporterPackageTag,
				"Reporter.deliver",
				metadata.CauseInvariantViolation,
				fmt.Sprintf("progress sink panicked: %v", rec),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrURL, event.URL),
					metadata.NewAttr(metadata.AttrTaskID, fmt.Sprint(event.ID)),
				},
			)
		}
	}()
	r.sink.OnPageCompleted(event)
}
