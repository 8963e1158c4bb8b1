package scheduler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/config"
	"github.com/rohmanhakim/site-crawler/internal/extractor"
	"github.com/rohmanhakim/site-crawler/internal/fetcher"
	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/progress"
	"github.com/rohmanhakim/site-crawler/internal/results"
	"github.com/rohmanhakim/site-crawler/internal/scheduler"
	"github.com/rohmanhakim/site-crawler/pkg/failure"
	"github.com/stretchr/testify/mock"
)

// testSite is an httptest server whose pages are registered per path and
// whose request counts can be inspected.
type testSite struct {
	server   *httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	site := &testSite{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}
	site.server = httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(site.server.Close)
	return site
}

func (s *testSite) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	handler, ok := s.handlers[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

func (s *testSite) handle(path string, handler http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[path] = handler
}

// page registers an HTML page linking to hrefs.
func (s *testSite) page(path string, hrefs ...string) {
	body := htmlPage(hrefs...)
	s.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	})
}

// slowPage is page with a response delay.
func (s *testSite) slowPage(path string, delay time.Duration, hrefs ...string) {
	body := htmlPage(hrefs...)
	s.handle(path, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	})
}

// stateLog collects run state transitions.
type stateLog struct {
	mu          sync.Mutex
	transitions []string
}

func (l *stateLog) observe(from, to scheduler.RunState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitions = append(l.transitions, from.String()+"->"+to.String())
}

func (l *stateLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.transitions...)
}

func (s *testSite) status(path string, code int) {
	s.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(code)
		fmt.Fprint(w, "<html><body>error</body></html>")
	})
}

func (s *testSite) URL(path string) string {
	return s.server.URL + path
}

func (s *testSite) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func htmlPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>page</title></head><body><ul>")
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<li><a href="%s">link</a></li>`, href)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

// testOptions disables pauses and robots.txt so tests only exercise what
// they set up.
func testOptions() config.CrawlOptions {
	options := config.DefaultOptions()
	options.RequestDelayMs = 0
	options.RespectRobotsTxt = false
	options.TimeoutSeconds = 5
	return options
}

// sleeperSpy records politeness pauses without waiting.
type sleeperSpy struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (s *sleeperSpy) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.pauses = append(s.pauses, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleeperSpy) Pauses() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.pauses))
	copy(out, s.pauses)
	return out
}

func newTestScheduler(opts ...scheduler.Option) (*scheduler.Scheduler, *sleeperSpy) {
	sleeper := &sleeperSpy{}
	all := append([]scheduler.Option{scheduler.WithSleeper(sleeper)}, opts...)
	return scheduler.NewScheduler(all...), sleeper
}

// robotsGateMock is a testify mock for robots.Gate
type robotsGateMock struct {
	mock.Mock
}

func (m *robotsGateMock) IsAllowed(ctx context.Context, target url.URL) bool {
	args := m.Called(ctx, target)
	return args.Bool(0)
}

// delayingGateMock also implements robots.CrawlDelayer
type delayingGateMock struct {
	robotsGateMock
}

func (m *delayingGateMock) CrawlDelay(ctx context.Context, target url.URL) time.Duration {
	args := m.Called(ctx, target)
	return args.Get(0).(time.Duration)
}

func pathIs(path string) any {
	return mock.MatchedBy(func(u url.URL) bool {
		return u.Path == path
	})
}

// fetcherMock is a testify mock for the Fetcher
type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(
	ctx context.Context,
	crawlDepth int,
	fetchParam fetcher.FetchParam,
) (fetcher.FetchResult, failure.ClassifiedError) {
	args := f.Called(ctx, crawlDepth, fetchParam)
	result := args.Get(0).(fetcher.FetchResult)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return result, err
}

func fetchedPage(rawUrl string, status int, contentType, body string) fetcher.FetchResult {
	u, _ := url.Parse(rawUrl)
	return fetcher.NewFetchResultForTest(*u, []byte(body), status, contentType, 5*time.Millisecond)
}

// parserFunc adapts a function to extractor.Parser
type parserFunc func(sourceUrl url.URL, body []byte) (extractor.Document, failure.ClassifiedError)

func (f parserFunc) Parse(sourceUrl url.URL, body []byte) (extractor.Document, failure.ClassifiedError) {
	return f(sourceUrl, body)
}

// finalizerSpy captures final crawl statistics
type finalizerSpy struct {
	mu    sync.Mutex
	calls []metadata.CrawlStats
}

func (f *finalizerSpy) RecordFinalCrawlStats(stats metadata.CrawlStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stats)
}

// progressSpy collects progress events
type progressSpy struct {
	mu     sync.Mutex
	events map[int]int
}

func newProgressSpy() *progressSpy {
	return &progressSpy{events: make(map[int]int)}
}

func (p *progressSpy) OnPageCompleted(event progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[event.ID]++
}

func (p *progressSpy) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func requestPaths(t *testing.T, crawled []results.CrawlResult) []string {
	t.Helper()
	paths := make([]string, 0, len(crawled))
	for _, r := range crawled {
		u, err := url.Parse(r.RequestPath)
		if err != nil {
			t.Fatalf("unparseable request path %q: %v", r.RequestPath, err)
		}
		paths = append(paths, u.Path)
	}
	return paths
}

func errorKinds(r results.CrawlResult) []results.ErrorKind {
	kinds := make([]results.ErrorKind, 0, len(r.Failures))
	for _, f := range r.Failures {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}

func progressFunc(f func()) progress.Sink {
	return progress.SinkFunc(func(progress.Event) { f() })
}

func paramFor(rawUrl string) any {
	return mock.MatchedBy(func(p fetcher.FetchParam) bool {
		u := p.URL()
		return u.String() == rawUrl
	})
}

// admissionSpy records admission decisions as "url reason"
type admissionSpy struct {
	metadata.NoopSink
	mu         sync.Mutex
	admissions []string
}

func (a *admissionSpy) RecordAdmission(targetUrl string, depth int, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.admissions = append(a.admissions, targetUrl+" "+reason)
}

func (a *admissionSpy) Admissions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.admissions))
	copy(out, a.admissions)
	return out
}
