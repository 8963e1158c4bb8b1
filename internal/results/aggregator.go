package results

import (
	"sort"
	"sync"
)

/*
Aggregator Responsibilities
- Collect finalized results from concurrent workers
- Ignore a second result for an ID it already holds
- Produce snapshots ordered by ID, which is discovery order
*/
type Aggregator struct {
	mu      sync.Mutex
	results []CrawlResult
	ids     map[int]struct{}
	errors  int
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		ids: make(map[int]struct{}),
	}
}

// Append stores a finalized result and reports whether it was new.
func (a *Aggregator) Append(result CrawlResult) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.ids[result.ID]; exists {
		return false
	}
	a.ids[result.ID] = struct{}{}
	a.results = append(a.results, result)
	if result.HasErrors() {
		a.errors++
	}
	return true
}

// Snapshot returns a copy of the collected results ordered by ID.
func (a *Aggregator) Snapshot() []CrawlResult {
	a.mu.Lock()
	snapshot := make([]CrawlResult, len(a.results))
	copy(snapshot, a.results)
	a.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID < snapshot[j].ID
	})
	return snapshot
}

func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

// ErrorCount is the number of results carrying at least one error.
func (a *Aggregator) ErrorCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errors
}
