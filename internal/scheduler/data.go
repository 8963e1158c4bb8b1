package scheduler

import (
	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/results"
)

// RunState is the lifecycle of one crawl run.
type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	// StateDraining: the queue is empty and workers are finishing their
	// tasks. A finishing task that admits new links returns the run to
	// StateRunning.
	StateDraining
	StateCompleted
	StateCancelled
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// CrawlingExecution summarizes a finished run. Results are ordered by ID,
// which is discovery order.
type CrawlingExecution struct {
	RunID   string
	Results []results.CrawlResult
	State   RunState
	Stats   metadata.CrawlStats
}

// StateObserver is told about every run state transition. It may be called
// from worker goroutines while the frontier is locked, so it must return
// quickly and must not call back into the scheduler.
type StateObserver func(from, to RunState)
