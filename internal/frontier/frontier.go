package frontier

import (
	"context"
	"sync"

	"github.com/rohmanhakim/site-crawler/pkg/urlutil"
)

/*
Frontier Responsibilities
- Own the visited set and the pending queue of one crawl run
- Decide admission atomically: dedup, depth limit, page budget, domain scope
- Assign task IDs in acceptance order
- Hand tasks to workers in FIFO order and track how many are in flight
- Knows nothing about:
	- fetching
	- parsing
	- robots.txt
	- results

Every method takes the same mutex, so a URL is claimed exactly once no matter
how many workers discover it concurrently. The map and queue never leave this
type.
*/
type Frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	policy   Policy
	visited  Set[string]
	queue    *FIFOQueue[CrawlTask]
	accepted int
	lastID   int
	inFlight int
	draining bool
	onDrain  func(draining bool)
}

func NewFrontier(policy Policy) *Frontier {
	f := &Frontier{
		policy:  policy,
		visited: NewSet[string](),
		queue:   NewFIFOQueue[CrawlTask](),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// TryAccept normalizes rawURL and admits it as a task at the given depth
// unless it was already claimed, lies beyond the depth limit, falls outside
// the seed domain while external links are disabled, or the page budget is
// spent. Accepting claims the URL, assigns the next ID, and enqueues the task
// in one step.
func (f *Frontier) TryAccept(rawURL string, depth int, foundFrom string) Admission {
	parsed, err := urlutil.ParseAbsolute(rawURL)
	if err != nil {
		return rejected(ReasonInvalidURL, rawURL)
	}
	canonical := urlutil.Canonicalize(parsed)
	key := canonical.String()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visited.Contains(key) {
		return rejected(ReasonDuplicate, key)
	}
	if f.policy.MaxDepth >= 0 && depth > f.policy.MaxDepth {
		return rejected(ReasonDepthExceeded, key)
	}
	if !f.policy.FollowExternalLinks && f.policy.SeedHost != "" &&
		urlutil.HostKey(canonical) != f.policy.SeedHost {
		return rejected(ReasonExternal, key)
	}
	if f.policy.MaxPages > 0 && f.accepted >= f.policy.MaxPages {
		return rejected(ReasonPageBudget, key)
	}

	f.visited.Add(key)
	f.accepted++
	f.lastID++
	task := CrawlTask{
		ID:        f.lastID,
		URL:       key,
		Depth:     depth,
		FoundFrom: foundFrom,
	}
	f.queue.Enqueue(task)
	f.setDraining(false)
	f.cond.Signal()

	return Admission{Accepted: true, Reason: ReasonAccepted, URL: key, Task: task}
}

// Dequeue pops the oldest pending task without blocking. Tasks taken here
// are not tracked as in flight; workers use Next and Done.
func (f *Frontier) Dequeue() (CrawlTask, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Dequeue()
}

// Next pops the oldest pending task and marks it in flight. While the queue
// is empty but other tasks are still in flight it waits, because those tasks
// may discover more links. It returns false once nothing is pending or in
// flight, or when ctx is cancelled.
func (f *Frontier) Next(ctx context.Context) (CrawlTask, bool) {
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return CrawlTask{}, false
		}
		if task, ok := f.queue.Dequeue(); ok {
			f.inFlight++
			if f.queue.Size() == 0 {
				f.setDraining(true)
			}
			return task, true
		}
		if f.inFlight == 0 {
			// wake the other idle workers so they observe exhaustion too
			f.cond.Broadcast()
			return CrawlTask{}, false
		}
		f.cond.Wait()
	}
}

// OnDrain registers fn to be told when the queue runs empty while tasks are
// still in flight (true), and when one of those tasks admits new work
// (false). fn runs with the frontier locked and must not call back into it.
func (f *Frontier) OnDrain(fn func(draining bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onDrain = fn
}

func (f *Frontier) setDraining(draining bool) {
	if f.draining == draining {
		return
	}
	f.draining = draining
	if f.onDrain != nil {
		f.onDrain(draining)
	}
}

// Done marks a task obtained from Next as finished.
func (f *Frontier) Done(task CrawlTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight > 0 {
		f.inFlight--
	}
	f.cond.Broadcast()
}

// Seen reports whether the normalized form of rawURL was already accepted.
func (f *Frontier) Seen(rawURL string) bool {
	parsed, err := urlutil.ParseAbsolute(rawURL)
	if err != nil {
		return false
	}
	canonical := urlutil.Canonicalize(parsed)

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.Contains(canonical.String())
}

func (f *Frontier) AcceptedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accepted
}

func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Size()
}

func (f *Frontier) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}
