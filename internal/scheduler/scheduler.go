package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rohmanhakim/site-crawler/internal/config"
	"github.com/rohmanhakim/site-crawler/internal/extractor"
	"github.com/rohmanhakim/site-crawler/internal/fetcher"
	"github.com/rohmanhakim/site-crawler/internal/frontier"
	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/progress"
	"github.com/rohmanhakim/site-crawler/internal/results"
	"github.com/rohmanhakim/site-crawler/internal/robots"
	"github.com/rohmanhakim/site-crawler/pkg/urlutil"
)

/*
 Scheduler is the sole control-plane authority of the crawl.

 Admission guarantees:
 - The frontier is the only place a URL becomes a task, and the scheduler
   is the only caller of Frontier.TryAccept.
 - Scope and robots checks happen before a URL is submitted.
 - Pipeline stages classify failures but never decide continuation:
   every page failure lands on that page's result and the run goes on.
 - Only an invalid configuration stops a run, and it does so before any
   fetch.

 Metadata emission is observational only and MUST NOT influence
 scheduling or crawl termination.

 Scheduler Responsibilities:
 - Validate the seed and options
 - Seed the frontier and run the worker pool
 - Drive the run state machine
 - Aggregate results and record final statistics exactly once
*/
type Scheduler struct {
	fetcher        fetcher.Fetcher
	parser         extractor.Parser
	robotsGate     robots.Gate
	metadataSink   metadata.MetadataSink
	crawlFinalizer metadata.CrawlFinalizer
	sleeper        Sleeper
	reporterOpts   []progress.ReporterOption
	fetcherOpts    []fetcher.Option
	stateObserver  StateObserver
	newRunID       func() string
}

type Option func(*Scheduler)

// WithFetcher replaces the default HtmlFetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(s *Scheduler) {
		s.fetcher = f
	}
}

// WithParser replaces the default HTMLParser.
func WithParser(p extractor.Parser) Option {
	return func(s *Scheduler) {
		s.parser = p
	}
}

// WithRobotsGate replaces the default robots.txt gate. It is only consulted
// when RespectRobotsTxt is set.
func WithRobotsGate(gate robots.Gate) Option {
	return func(s *Scheduler) {
		s.robotsGate = gate
	}
}

// WithMetadataSink sets the sink injected into every stage. A sink that
// also implements metadata.CrawlFinalizer receives the final stats unless
// WithCrawlFinalizer overrides it.
func WithMetadataSink(sink metadata.MetadataSink) Option {
	return func(s *Scheduler) {
		s.metadataSink = sink
	}
}

func WithCrawlFinalizer(finalizer metadata.CrawlFinalizer) Option {
	return func(s *Scheduler) {
		s.crawlFinalizer = finalizer
	}
}

func WithSleeper(sleeper Sleeper) Option {
	return func(s *Scheduler) {
		s.sleeper = sleeper
	}
}

func WithReporterOptions(opts ...progress.ReporterOption) Option {
	return func(s *Scheduler) {
		s.reporterOpts = append(s.reporterOpts, opts...)
	}
}

// WithFetcherOptions configures the default HtmlFetcher. It has no effect
// when WithFetcher is also given.
func WithFetcherOptions(opts ...fetcher.Option) Option {
	return func(s *Scheduler) {
		s.fetcherOpts = append(s.fetcherOpts, opts...)
	}
}

func WithStateObserver(observer StateObserver) Option {
	return func(s *Scheduler) {
		s.stateObserver = observer
	}
}

func WithRunIDGenerator(generate func() string) Option {
	return func(s *Scheduler) {
		s.newRunID = generate
	}
}

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		metadataSink: &metadata.NoopSink{},
		sleeper:      timerSleeper{},
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Crawl runs a crawl with a default Scheduler and returns the results in
// discovery order.
func Crawl(
	ctx context.Context,
	seedUrl string,
	options config.CrawlOptions,
	sink progress.Sink,
) ([]results.CrawlResult, error) {
	return NewScheduler().Crawl(ctx, seedUrl, options, sink)
}

func (s *Scheduler) Crawl(
	ctx context.Context,
	seedUrl string,
	options config.CrawlOptions,
	sink progress.Sink,
) ([]results.CrawlResult, error) {
	execution, err := s.Execute(ctx, seedUrl, options, sink)
	if err != nil {
		return nil, err
	}
	return execution.Results, nil
}

// Execute runs one crawl to completion or cancellation. The only error it
// returns is a configuration error, reported before anything is fetched.
// A cancelled run returns the results gathered so far with a nil error;
// cancellation shows in State.
func (s *Scheduler) Execute(
	ctx context.Context,
	seedUrl string,
	options config.CrawlOptions,
	sink progress.Sink,
) (CrawlingExecution, error) {
	seed, err := config.ParseSeed(seedUrl)
	if err == nil {
		err = options.Validate()
	}
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"scheduler",
			"Scheduler.Execute",
			metadata.CauseContentInvalid,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, seedUrl),
			},
		)
		return CrawlingExecution{State: StateIdle}, err
	}

	startTime := time.Now()
	runID := s.newRunID()
	runSink := s.metadataSink
	if recorder, ok := runSink.(*metadata.Recorder); ok {
		runSink = recorder.WithRun(runID)
	}

	seedHost := urlutil.HostKey(seed)
	crawlFrontier := frontier.NewFrontier(frontier.Policy{
		MaxPages:            options.MaxPages,
		MaxDepth:            options.MaxDepth,
		FollowExternalLinks: options.FollowExternalLinks,
		SeedHost:            seedHost,
	})

	run := &crawlRun{
		processor: &pageProcessor{
			options:      options,
			seedHost:     seedHost,
			fetcher:      s.fetcherFor(runSink),
			parser:       s.parserFor(runSink),
			gate:         s.gateFor(options, runSink),
			frontier:     crawlFrontier,
			metadataSink: runSink,
		},
		frontier:   crawlFrontier,
		commits:    newCommitGate(1),
		aggregator: results.NewAggregator(),
		reporter: progress.NewReporter(
			sink,
			append([]progress.ReporterOption{progress.WithMetadataSink(runSink)}, s.reporterOpts...)...,
		),
		sleeper:  s.sleeper,
		delay:    options.RequestDelay(),
		observer: s.stateObserver,
	}
	if delayer, ok := run.processor.gate.(robots.CrawlDelayer); ok {
		run.delayer = delayer
	}

	// the seed bypasses the robots gate
	admission := crawlFrontier.TryAccept(seed.String(), 0, "")
	runSink.RecordAdmission(admission.URL, 0, string(admission.Reason))

	run.transition(StateIdle, StateRunning)
	crawlFrontier.OnDrain(run.onDrain)
	run.runWorkers(ctx, options.MaxConcurrentRequests)

	if ctx.Err() != nil {
		run.finish(StateCancelled)
	} else {
		run.finish(StateCompleted)
	}
	run.reporter.Close()

	stats := metadata.CrawlStats{
		RunID:              runID,
		FinalState:         run.State().String(),
		TotalPages:         run.aggregator.Len(),
		TotalErrors:        run.aggregator.ErrorCount(),
		DroppedProgress:    run.reporter.Dropped(),
		Duration:           time.Since(startTime),
		AcceptedCandidates: crawlFrontier.AcceptedCount(),
	}
	if finalizer := s.finalizerFor(runSink); finalizer != nil {
		finalizer.RecordFinalCrawlStats(stats)
	}

	return CrawlingExecution{
		RunID:   runID,
		Results: run.aggregator.Snapshot(),
		State:   run.State(),
		Stats:   stats,
	}, nil
}

func (s *Scheduler) fetcherFor(runSink metadata.MetadataSink) fetcher.Fetcher {
	if s.fetcher != nil {
		return s.fetcher
	}
	return fetcher.NewHtmlFetcher(runSink, s.fetcherOpts...)
}

func (s *Scheduler) parserFor(runSink metadata.MetadataSink) extractor.Parser {
	if s.parser != nil {
		return s.parser
	}
	return extractor.NewHTMLParser(runSink)
}

// gateFor returns nil when robots.txt is not respected, so the processor
// skips the check entirely.
func (s *Scheduler) gateFor(options config.CrawlOptions, runSink metadata.MetadataSink) robots.Gate {
	if !options.RespectRobotsTxt {
		return nil
	}
	if s.robotsGate != nil {
		return s.robotsGate
	}
	return robots.NewRobot(runSink, options.UserAgent, nil)
}

func (s *Scheduler) finalizerFor(runSink metadata.MetadataSink) metadata.CrawlFinalizer {
	if s.crawlFinalizer != nil {
		return s.crawlFinalizer
	}
	if finalizer, ok := runSink.(metadata.CrawlFinalizer); ok {
		return finalizer
	}
	return nil
}
