package scheduler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/results"
	"github.com/rohmanhakim/site-crawler/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBranchingSite serves / -> /a, /b; /a -> /a1; /b -> /b1, with one page
// answering after delay.
func newBranchingSite(t *testing.T, slow string, delay time.Duration) *testSite {
	t.Helper()
	site := newTestSite(t)
	pages := map[string][]string{
		"/":   {"/a", "/b"},
		"/a":  {"/a1"},
		"/b":  {"/b1"},
		"/a1": nil,
		"/b1": nil,
	}
	for path, hrefs := range pages {
		if path == slow {
			site.slowPage(path, delay, hrefs...)
			continue
		}
		site.page(path, hrefs...)
	}
	return site
}

func idsAndPaths(t *testing.T, crawled []results.CrawlResult) []string {
	t.Helper()
	paths := requestPaths(t, crawled)
	out := make([]string, len(crawled))
	for i, r := range crawled {
		out[i] = fmt.Sprintf("%d:%s", r.ID, paths[i])
	}
	return out
}

func TestCrawl_DiscoveryOrderIndependentOfTiming(t *testing.T) {
	tests := []struct {
		name     string
		maxPages int
		expected []string
	}{
		{
			name:     "unbounded budget",
			maxPages: 10,
			expected: []string{"1:/", "2:/a", "3:/b", "4:/a1", "5:/b1"},
		},
		{
			name:     "budget cuts the last child",
			maxPages: 4,
			expected: []string{"1:/", "2:/a", "3:/b", "4:/a1"},
		},
	}

	for _, tt := range tests {
		for _, slow := range []string{"", "/a", "/b", "/a1"} {
			t.Run(fmt.Sprintf("%s/slow %q", tt.name, slow), func(t *testing.T) {
				site := newBranchingSite(t, slow, 80*time.Millisecond)

				options := testOptions()
				options.MaxConcurrentRequests = 2
				options.MaxPages = tt.maxPages

				s, _ := newTestScheduler()
				crawled, err := s.Crawl(context.Background(), site.URL("/"), options, nil)
				require.NoError(t, err)

				assert.Equal(t, tt.expected, idsAndPaths(t, crawled))
			})
		}
	}
}

func TestCrawl_RepeatedRunsVisitSameSet(t *testing.T) {
	options := testOptions()
	options.MaxConcurrentRequests = 3
	options.MaxPages = 4

	var first []string
	for i, slow := range []string{"/b", "/a", "", "/b"} {
		site := newBranchingSite(t, slow, time.Duration(20*(i+1))*time.Millisecond)

		s, _ := newTestScheduler()
		crawled, err := s.Crawl(context.Background(), site.URL("/"), options, nil)
		require.NoError(t, err)

		got := idsAndPaths(t, crawled)
		if first == nil {
			first = got
			continue
		}
		assert.Equal(t, first, got, "run %d", i)
	}
	assert.Equal(t, []string{"1:/", "2:/a", "3:/b", "4:/a1"}, first)
}

func TestCrawl_StateTransitions(t *testing.T) {
	site := newTestSite(t)
	site.page("/", "/a")
	site.page("/a")

	states := &stateLog{}
	options := testOptions()
	options.MaxConcurrentRequests = 1

	s, _ := newTestScheduler(scheduler.WithStateObserver(states.observe))
	execution, err := s.Execute(context.Background(), site.URL("/"), options, nil)
	require.NoError(t, err)

	assert.Equal(t, scheduler.StateCompleted, execution.State)
	assert.Equal(t, []string{
		"idle->running",
		// the seed is in flight and the queue is empty
		"running->draining",
		// the seed admitted /a
		"draining->running",
		"running->draining",
		"draining->completed",
	}, states.all())
}

func TestCrawl_DrainingWhileWorkerFinishes(t *testing.T) {
	site := newTestSite(t)
	site.page("/", "/slow")

	states := &stateLog{}
	observed := make(chan []string, 1)
	site.handle("/slow", func(w http.ResponseWriter, r *http.Request) {
		observed <- states.all()
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, htmlPage())
	})

	options := testOptions()
	options.MaxConcurrentRequests = 2

	s, _ := newTestScheduler(scheduler.WithStateObserver(states.observe))
	execution, err := s.Execute(context.Background(), site.URL("/"), options, nil)
	require.NoError(t, err)

	during := <-observed
	require.NotEmpty(t, during)
	assert.Equal(t, "running->draining", during[len(during)-1])
	assert.Equal(t, scheduler.StateCompleted, execution.State)
}
