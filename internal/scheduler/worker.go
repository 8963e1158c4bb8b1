package scheduler

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/extractor"
	"github.com/rohmanhakim/site-crawler/internal/frontier"
	"github.com/rohmanhakim/site-crawler/internal/progress"
	"github.com/rohmanhakim/site-crawler/internal/results"
	"github.com/rohmanhakim/site-crawler/internal/robots"
	"github.com/rohmanhakim/site-crawler/pkg/timeutil"
	"golang.org/x/sync/errgroup"
)

// crawlRun holds the shared state of one run. Workers only touch it through
// the frontier, the aggregator and the reporter, which synchronize
// themselves.
type crawlRun struct {
	processor  *pageProcessor
	frontier   *frontier.Frontier
	commits    *commitGate
	aggregator *results.Aggregator
	reporter   *progress.Reporter
	sleeper    Sleeper
	delay      time.Duration
	delayer    robots.CrawlDelayer
	state      atomic.Int32
	observer   StateObserver
}

func (r *crawlRun) State() RunState {
	return RunState(r.state.Load())
}

func (r *crawlRun) transition(from, to RunState) bool {
	if !r.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if r.observer != nil {
		r.observer(from, to)
	}
	return true
}

// onDrain follows the frontier: the run is draining while the queue is empty
// and workers are still finishing, and running again if they find more work.
func (r *crawlRun) onDrain(draining bool) {
	if draining {
		r.transition(StateRunning, StateDraining)
		return
	}
	r.transition(StateDraining, StateRunning)
}

// finish moves the run to its terminal state.
func (r *crawlRun) finish(to RunState) {
	for {
		from := r.State()
		if from == StateCompleted || from == StateCancelled {
			return
		}
		if r.transition(from, to) {
			return
		}
	}
}

// runWorkers blocks until every worker has exited: the frontier is
// exhausted with nothing in flight, or ctx is cancelled.
func (r *crawlRun) runWorkers(ctx context.Context, workers int) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			r.work(gctx)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *crawlRun) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		task, ok := r.frontier.Next(ctx)
		if !ok {
			return
		}

		result := r.process(ctx, task)
		r.aggregator.Append(result)
		r.reporter.Report(progress.Event{
			ID:         result.ID,
			URL:        result.RequestPath,
			StatusCode: result.StatusCode,
			Depth:      result.Depth,
			LinksFound: result.LinksFound,
			ErrorCount: len(result.Errors),
		})
		r.frontier.Done(task)

		if err := r.sleeper.Sleep(ctx, r.pauseAfter(ctx, task)); err != nil {
			return
		}
	}
}

// process runs the page processor and then submits the page's links in
// commit order. A panic in either step becomes an error on the result.
func (r *crawlRun) process(ctx context.Context, task frontier.CrawlTask) results.CrawlResult {
	result, links := r.processPage(ctx, task)
	r.commit(ctx, task, &result, links)
	return result
}

func (r *crawlRun) processPage(ctx context.Context, task frontier.CrawlTask) (result results.CrawlResult, links []extractor.CandidateLink) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = r.processor.panicResult(task, recovered)
			links = nil
		}
	}()
	return r.processor.Process(ctx, task)
}

// commit waits for task's turn, submits its links and passes the turn on.
// The turn is taken even when there are no links so later tasks can proceed.
func (r *crawlRun) commit(ctx context.Context, task frontier.CrawlTask, result *results.CrawlResult, links []extractor.CandidateLink) {
	if !r.commits.wait(ctx, task.ID) {
		return
	}
	defer r.commits.release(task.ID)
	defer func() {
		if recovered := recover(); recovered != nil {
			r.processor.recordPanic(result, task, "pageProcessor.submit", recovered)
		}
	}()
	if len(links) > 0 {
		r.processor.submit(ctx, task, links)
	}
}

// pauseAfter is the politeness pause taken after task: the configured delay,
// or the host's robots Crawl-delay when that is longer.
func (r *crawlRun) pauseAfter(ctx context.Context, task frontier.CrawlTask) time.Duration {
	if r.delayer == nil {
		return r.delay
	}
	target, err := url.Parse(task.URL)
	if err != nil {
		return r.delay
	}
	return timeutil.MaxDuration([]time.Duration{r.delay, r.delayer.CrawlDelay(ctx, *target)})
}
